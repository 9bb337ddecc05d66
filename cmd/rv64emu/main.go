// Command rv64emu boots a raw RV64IMA kernel image under a minimal machine
// model: CLINT, PLIC, UART console, a custom block device and a keyboard
// port (see internal/rv64).
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/go-rv64/rv64emu/internal/rv64"
)

// ExitError carries a process exit code up to main, mirroring the host
// error taxonomy in §7: bad arguments exit 2, resource init failures exit 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// fixCrlf rewrites bare newlines to CRLF; required once the terminal is put
// into raw mode, which disables the tty driver's own newline translation.
type fixCrlf struct {
	w io.Writer
}

func (f *fixCrlf) Write(p []byte) (int, error) {
	return f.w.Write(bytes.ReplaceAll(p, []byte{'\n'}, []byte{'\r', '\n'}))
}

// nsPerTick sets the virtual CLINT timer rate: 10 MHz, matching common
// RISC-V platform timer frequencies.
const nsPerTick = 100

func main() {
	if err := run(); err != nil {
		var exitErr *ExitError
		if ee, ok := err.(*ExitError); ok {
			exitErr = ee
		}
		if exitErr != nil {
			fmt.Fprintf(os.Stderr, "rv64emu: %v\n", exitErr.Err)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "rv64emu: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	noColor := flag.Bool("no-color", false, "Disable ANSI styling in banner output")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <raw kernel image> [<disk image>]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(&fixCrlf{w: os.Stderr}, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		return &ExitError{Code: 2, Err: fmt.Errorf("expected <raw kernel image> [<disk image>], got %d arguments", len(args))}
	}

	banner := "\x1b[1mrv64emu\x1b[0m booting " + args[0]
	if *noColor {
		banner = ansi.Strip(banner)
	}
	fmt.Fprintln(os.Stderr, banner)

	kernel, err := loadImage(args[0], "kernel")
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	var disk []byte
	if len(args) == 2 {
		disk, err = loadImage(args[1], "disk")
		if err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("enable raw terminal mode: %w", err)}
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	uart := rv64.NewUART(os.Stdout, os.Stdin)
	block := rv64.NewBlockDevice(disk)
	kbd := rv64.NewKeyboard()

	machine := rv64.NewMachine(uart, block, kbd)
	if err := machine.Bus.LoadImage(rv64.RAMBase, kernel); err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("load kernel image: %w", err)}
	}

	slog.Info("booting", "kernel_bytes", len(kernel), "disk_bytes", len(disk))
	slog.Debug("framebuffer window", "base", fmt.Sprintf("0x%x", rv64.FramebufferBase), "size", rv64.FramebufferSize)

	// SIGINT is the "driver signal" clean-quit path (§6); a fatal fetch
	// fault from Run itself is reported as a plain error and exits 1.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stopSignals()

	lastTick := time.Now()
	instrsPerBatch := 0
	runErr := machine.Run(func() bool {
		if sigCtx.Err() != nil {
			return false
		}
		instrsPerBatch++
		if instrsPerBatch >= 1000 {
			instrsPerBatch = 0
			elapsed := time.Since(lastTick)
			lastTick = time.Now()
			machine.CLINT.Mtime += uint64(elapsed.Nanoseconds()) / nsPerTick
			// mip.MTIP follows the mtimecmp <= mtime comparison.
			mip := machine.CPU.CSR.Read(rv64.CSRMip)
			if machine.CLINT.Pending() {
				mip |= rv64.MipMTIP
			} else {
				mip &^= rv64.MipMTIP
			}
			machine.CPU.CSR.Write(rv64.CSRMip, mip)
		}
		return true
	})
	if sigCtx.Err() != nil {
		return nil
	}
	return runErr
}

// loadImage reads path into memory, reporting progress on stderr for large
// files (§6: images are loaded verbatim).
func loadImage(path, label string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s image: %w", label, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s image: %w", label, err)
	}

	bar := progressbar.DefaultBytes(info.Size(), fmt.Sprintf("loading %s", label))
	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), f); err != nil {
		return nil, fmt.Errorf("read %s image: %w", label, err)
	}
	return buf.Bytes(), nil
}
