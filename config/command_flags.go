// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "flag"

// parseCommandLineArgs defines and parses flags, returning the value of the "config" flag.
func parseCommandLineArgs() string {
	configFilePath := "./config.yaml"

	if f := flag.Lookup("config"); f != nil {
		return f.Value.String()
	}

	flag.StringVar(&configFilePath, "config", configFilePath, "Path to a dashboard configuration file in YAML format.")

	if !flag.Parsed() {
		flag.Parse()
	}

	return configFilePath
}
