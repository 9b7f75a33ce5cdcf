// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package jsmodule is a module runtime whose tool programs are
// JavaScript files run by goja.
//
// A program named "samtools" is loaded from the bundle as
// "samtools.js". Instantiation evaluates its top level once, and every
// [Instance.Main] call invokes the global main function with the
// argument vector, so globals survive between runs exactly as they do
// in a long-lived compiled module. If the bundle also has
// "samtools.data", a tar archive (optionally zstd or lz4 compressed),
// it is unpacked at "/" of the instance namespace before the program
// runs. Bundles conventionally ship their sample data under
// "/<tool>/".
//
// Programs see this host API:
//
//	print(...values)        line to stdout
//	printErr(...values)     line to stderr
//	write(fd, text)         raw text to descriptor 1 or 2
//	exit(code)              stop; non-zero codes fail Main
//	fs.readFile(path)       fs.writeFile(path, text)
//	fs.appendFile(path, text)
//	fs.exists(path)         fs.isDir(path)
//	fs.readdir(path)        fs.stat(path)
//	fs.mkdir(path)          fs.unlink(path)
//	fs.symlink(target, link)  fs.readlink(path)
//	fs.cwd()                fs.chdir(path)
//
// Filesystem failures are thrown as JavaScript errors the program may
// catch.
package jsmodule
