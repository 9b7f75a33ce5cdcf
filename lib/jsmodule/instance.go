// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jsmodule

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/bureau-foundation/toolfed/lib/module"
	"github.com/bureau-foundation/toolfed/lib/namespace"
)

// ExitError reports a non-zero exit(code) call from a program.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exitRequest is the interrupt value exit() uses to unwind the VM.
type exitRequest struct {
	code int
}

// Instance is one evaluated program. Its global state persists across
// Main calls until the instance is discarded.
type Instance struct {
	program string
	fs      *namespace.FS

	mu sync.Mutex
	vm *goja.Runtime
}

var _ module.Instance = (*Instance)(nil)

// Namespace returns the instance's filesystem.
func (i *Instance) Namespace() namespace.Namespace { return i.fs }

// Main calls the program's global main function with args as a string
// array. A program that throws, calls exit with a non-zero code, or
// panics the host binding returns an error.
func (i *Instance) Main(args []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, ok := goja.AssertFunction(i.vm.Get("main"))
	if !ok {
		return fmt.Errorf("%s does not define a main function", i.program)
	}
	values := make([]any, len(args))
	for index, arg := range args {
		values[index] = arg
	}
	return i.run(func() error {
		_, err := entry(goja.Undefined(), i.vm.NewArray(values...))
		return err
	})
}

// run executes body, translating exit requests and recovering host
// panics into errors.
func (i *Instance) run(body func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s: panic: %v", i.program, recovered)
		}
	}()
	defer i.vm.ClearInterrupt()

	err = body()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if request, ok := interrupted.Value().(exitRequest); ok {
			if request.code == 0 {
				return nil
			}
			return &ExitError{Code: request.code}
		}
	}
	return err
}

// bind installs the host API: print, printErr, write, exit, and the fs
// object.
func (i *Instance) bind() error {
	vm := i.vm
	stdout, _ := i.fs.Stream(namespace.Stdout)
	stderr, _ := i.fs.Stream(namespace.Stderr)

	printTo := func(stream *namespace.Stream) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for index, argument := range call.Arguments {
				parts[index] = argument.String()
			}
			i.check(stream.Write([]byte(strings.Join(parts, " ") + "\n")))
			return goja.Undefined()
		}
	}

	bindings := map[string]any{
		"print":    printTo(stdout),
		"printErr": printTo(stderr),
		"write": func(fd int, text string) {
			stream, err := i.fs.Stream(fd)
			i.check(0, err)
			i.check(stream.Write([]byte(text)))
		},
		"exit": func(code int) {
			vm.Interrupt(exitRequest{code: code})
		},
		"fs": i.fsObject(),
	}
	for name, value := range bindings {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
	}
	return nil
}

// check throws err into JavaScript as a catchable exception.
func (i *Instance) check(_ int, err error) {
	if err != nil {
		panic(i.vm.NewGoError(err))
	}
}

func (i *Instance) fail(err error) {
	i.check(0, err)
}

// fsObject builds the JavaScript fs binding over the instance
// namespace.
func (i *Instance) fsObject() *goja.Object {
	vm := i.vm
	fs := i.fs
	object := vm.NewObject()
	methods := map[string]any{
		"readFile": func(p string) string {
			data, err := fs.ReadFile(p)
			i.fail(err)
			return string(data)
		},
		"writeFile": func(p, text string) {
			i.fail(fs.WriteFile(p, []byte(text)))
		},
		"appendFile": func(p, text string) {
			i.fail(fs.Create(p))
			info, err := fs.Stat(p)
			i.fail(err)
			i.check(fs.WriteAt(p, []byte(text), info.Size))
		},
		"exists": func(p string) bool {
			return fs.Analyze(p).Exists
		},
		"isDir": func(p string) bool {
			info := fs.Analyze(p)
			return info.Exists && info.Kind == namespace.KindDir
		},
		"readdir": func(p string) []any {
			entries, err := fs.ReadDir(p)
			i.fail(err)
			names := make([]any, len(entries))
			for index, entry := range entries {
				names[index] = entry.Name
			}
			return names
		},
		"stat": func(p string) map[string]any {
			info, err := fs.Stat(p)
			i.fail(err)
			return map[string]any{
				"name":  info.Name,
				"kind":  info.Kind.String(),
				"size":  info.Size,
				"mtime": info.ModTime.UnixMilli(),
			}
		},
		"mkdir": func(p string) {
			i.fail(fs.Mkdir(p))
		},
		"unlink": func(p string) {
			i.fail(fs.Unlink(p))
		},
		"symlink": func(target, link string) {
			i.fail(fs.Symlink(target, link))
		},
		"readlink": func(p string) string {
			target, err := fs.Readlink(p)
			i.fail(err)
			return target
		},
		"cwd": func() string {
			return fs.Getwd()
		},
		"chdir": func(p string) {
			i.fail(fs.Chdir(p))
		},
	}
	for name, method := range methods {
		if err := object.Set(name, method); err != nil {
			panic(fmt.Sprintf("jsmodule: binding fs.%s: %v", name, err))
		}
	}
	return object
}
