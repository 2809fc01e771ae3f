// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package identify assigns a format tag to a unit by inspecting its content.
//
// Directories, symlinks and devices are tagged from their file mode. Regular
// files are classified from a bounded content prefix using mimetype. The
// detected MIME type and its ancestors are matched against an ordered
// signature table, and the first entry that matches wins. That order is the
// tie-break for polyglot content: an ELF that is also a valid zip is tagged
// elf because elf comes first.
//
// Identification never fails. Unreadable or unrecognized content is tagged
// text when the prefix is valid UTF-8 without NUL bytes, and binary
// otherwise.
package identify
