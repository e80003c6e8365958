// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"
)

// writePOT writes refs as a gettext template, ordered by context, msgid and
// plural. Reference comments are sorted and deduplicated.
func writePOT(w io.Writer, refs map[key][]ref, version string, created time.Time) error {
	bw := bufio.NewWriter(w)

	writeHeader(bw, version, created)

	keys := slices.SortedFunc(maps.Keys(refs), func(a, b key) int {
		return cmp.Or(
			cmp.Compare(a.ctx, b.ctx),
			cmp.Compare(a.id, b.id),
			cmp.Compare(a.plural, b.plural),
		)
	})

	for i, k := range keys {
		if i > 0 {
			fmt.Fprintln(bw)
		}

		writeRefs(bw, refs[k])

		if k.ctx != "" {
			fmt.Fprintf(bw, "msgctxt %q\n", k.ctx)
		}

		fmt.Fprintf(bw, "msgid %q\n", k.id)

		if k.plural == "" {
			fmt.Fprintln(bw, `msgstr ""`)

			continue
		}

		fmt.Fprintf(bw, "msgid_plural %q\n", k.plural)
		fmt.Fprintln(bw, `msgstr[0] ""`)
		fmt.Fprintln(bw, `msgstr[1] ""`)
	}

	return bw.Flush()
}

func writeRefs(w io.Writer, rs []ref) {
	rs = slices.Clone(rs)
	slices.SortFunc(rs, func(a, b ref) int {
		return cmp.Or(cmp.Compare(a.file, b.file), cmp.Compare(a.line, b.line))
	})

	fmt.Fprint(w, "#:")

	for _, r := range slices.Compact(rs) {
		fmt.Fprintf(w, " %s:%d", r.file, r.line)
	}

	fmt.Fprintln(w)
}

func writeHeader(w io.Writer, version string, created time.Time) {
	fmt.Fprintln(w, `msgid ""`)
	fmt.Fprintln(w, `msgstr ""`)
	fmt.Fprintf(w, "\"Project-Id-Version: dashboard %s\\n\"\n", version)
	fmt.Fprintf(w, "\"POT-Creation-Date: %s\\n\"\n", created.UTC().Format("2006-01-02 15:04+0000"))
	fmt.Fprintln(w, `"Language: en\n"`)
	fmt.Fprintln(w, `"MIME-Version: 1.0\n"`)
	fmt.Fprintln(w, `"Content-Type: text/plain; charset=UTF-8\n"`)
	fmt.Fprintln(w, `"Content-Transfer-Encoding: 8bit\n"`)
	fmt.Fprintln(w, `"Plural-Forms: nplurals=2; plural=(n != 1);\n"`)
	fmt.Fprintln(w)
}
