package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
)

func Run(f func()) {
	go func() {
		defer Recover()
		f()
	}()
}

func Recover() {
	if r := recover(); r != nil {
		HandlePanic(r)
	}
}

func HandlePanic(panic any) {
	defer os.Exit(1)
	log.Printf("panic: %v\n\n%s\n", panic, stack())
}

func PanicF(format string, a ...any) {
	panic(fmt.Sprintf(format, a...))
}

// Guard runs f and turns a panic into an error carrying the stack,
// so one malformed chart cannot take down a whole check run.
func Guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n\n%s", r, stack())
		}
	}()
	return f()
}

func stack() string {
	buf := make([]byte, 100000)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
