// Command echoserver is an accept loop that spawns one Task per
// connection, echoing every read back to its writer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/miyake13000/art"
	"github.com/miyake13000/art/internal/logx"
	"github.com/miyake13000/art/sched"
	"github.com/miyake13000/art/tcpio"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "address to listen on")
	useSched := flag.Bool("use-sched", false, "cooperate with the pinned sched_ext priority map")
	verbose := flag.Bool("v", false, "log reactor/task diagnostics to stderr")
	flag.Parse()

	var logger logx.Logger = logx.NoopLogger{}
	if *verbose {
		logger = logx.NewDefaultLogger(os.Stderr, logx.LevelDebug)
	}

	opts := []art.RuntimeOption{art.WithLogger(logger)}
	if *useSched {
		client, err := sched.NewBPFClient()
		if err != nil {
			log.Printf("echoserver: scheduler cooperation unavailable: %v", err)
		} else {
			opts = append(opts, art.WithSchedulerClient(client))
		}
	}

	rt, err := art.New(opts...)
	if err != nil {
		log.Fatalf("echoserver: start runtime: %v", err)
	}
	defer rt.Close()

	ln, err := tcpio.Listen(rt, *addr)
	if err != nil {
		log.Fatalf("echoserver: listen on %s: %v", *addr, err)
	}
	fmt.Printf("Server starts on: %s\n", *addr)

	rt.Spawn(art.FutureFunc(acceptLoop(rt, ln)))
	rt.Run()
}

// acceptLoop returns a Future that repeatedly accepts a connection and
// spawns a handler Task for it, never itself terminating.
func acceptLoop(rt *art.Runtime, ln *tcpio.Listener) func(*art.Context) bool {
	var pending *tcpio.AcceptFuture
	return func(ctx *art.Context) bool {
		for {
			if pending == nil {
				pending = ln.Accept()
			}
			if !pending.Poll(ctx) {
				return false
			}
			af := pending
			pending = nil

			if af.Err != nil {
				fmt.Printf("accept error: %v\n", af.Err)
				return false
			}
			fmt.Printf("accept: %s\n", af.Addr)
			rt.Spawn(art.FutureFunc(echoLoop(af.Stream, af.Addr.String())))
		}
	}
}

// echoLoop returns a Future that reads from stream and writes every
// byte read back to it, until the peer closes or an error occurs.
func echoLoop(stream *tcpio.Stream, label string) func(*art.Context) bool {
	buf := make([]byte, 1024)
	var readF *tcpio.ReadFuture
	var writeF *tcpio.WriteFuture
	writeRemaining := 0
	writeOff := 0

	return func(ctx *art.Context) bool {
		for {
			if writeF != nil {
				if !writeF.Poll(ctx) {
					return false
				}
				if writeF.Err != nil {
					fmt.Printf("write error %s: %v\n", label, writeF.Err)
					_ = stream.Close()
					return true
				}
				writeOff += writeF.N
				writeRemaining -= writeF.N
				if writeRemaining > 0 {
					writeF = stream.Write(buf[writeOff : writeOff+writeRemaining])
					continue
				}
				writeF = nil
			}

			if readF == nil {
				readF = stream.Read(buf)
			}
			if !readF.Poll(ctx) {
				return false
			}
			if readF.Err != nil {
				fmt.Printf("read error %s: %v\n", label, readF.Err)
				_ = stream.Close()
				return true
			}
			if readF.N == 0 {
				fmt.Printf("close: %s\n", label)
				_ = stream.Close()
				return true
			}

			fmt.Printf("read: %s, %d bytes\n", label, readF.N)
			writeOff, writeRemaining = 0, readF.N
			writeF = stream.Write(buf[:readF.N])
			readF = nil
		}
	}
}
