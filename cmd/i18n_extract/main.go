// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Command i18n_extract scans the module for translatable strings and writes a
gettext template.

It picks up calls to i18n.Tr, i18n.TrC and i18n.TrN with constant arguments,
plus every constant converted to i18n.MsgKey, explicitly or through a typed
field, slice element, map entry or function parameter.

Run it from the module root after regenerating the templ files:

	go run ./cmd/i18n_extract -o i18n/po/dashboard.pot
*/
package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/tools/go/packages"

	"codeberg.org/mambo/dashboard/core/audit"
)

func main() {
	outPath := flag.String("o", "i18n/po/dashboard.pot", "output file")
	flag.Parse()

	audit.SetDefaultLogger()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get working directory")
	}

	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax, Tests: false}, "./...")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load packages")
	}

	if packages.PrintErrors(pkgs) > 0 {
		log.Fatal().Msg("Failed to load packages due to errors")
	}

	refs := map[key][]ref{}
	root := findProjectRoot(wd)
	i18nPkgs := findI18nPkgPaths(pkgs)

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		newExtractor(refs, root, p.Fset, p.TypesInfo, i18nPkgs).walk(p.Syntax)
	}

	var buf bytes.Buffer
	if err := writePOT(&buf, refs, detectVersion(), time.Now()); err != nil {
		log.Fatal().Err(err).Msg("Failed to build template")
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}

	if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		log.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write output file")
	}

	log.Info().
		Str("path", *outPath).
		Int("messages", len(refs)).
		Msg("Wrote message template")
}
