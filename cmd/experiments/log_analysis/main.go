// Command log_analysis summarizes the exception dumps in a trace log: how
// often each exception happened and which call failed.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// record is one JSON line of the trace log.
type record struct {
	Msg    string `json:"msg"`
	Reason string `json:"reason"`
	SendID uint32 `json:"send_id"`
	Call   string `json:"call"`
	Object string `json:"object"`
}

// Dump is one exception with the calls leading up to it.
type Dump struct {
	Exception string
	SendID    string
	Calls     []record
}

// Failing returns the call the exception refers to, the last one traced.
func (d Dump) Failing() string {
	if len(d.Calls) == 0 {
		return "(untraced)"
	}
	return d.Calls[len(d.Calls)-1].Call
}

// Count is one row of the summary.
type Count struct {
	Exception string
	Call      string
	N         int
}

func main() {
	path := flag.String("log", "logs/sendid_trace.log", "Path to the trace log")
	flag.Parse()

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer f.Close()

	dumps, err := parse(f)
	if err != nil {
		log.Fatalf("Failed to parse log: %v", err)
	}

	fmt.Printf("%d exception dumps\n\n", len(dumps))
	fmt.Printf("%-36s %-28s %6s\n", "Exception", "Failing call", "Count")
	fmt.Println(strings.Repeat("-", 72))
	for _, c := range summarize(dumps) {
		fmt.Printf("%-36s %-28s %6d\n", c.Exception, c.Call, c.N)
	}
}

func parse(r io.Reader) ([]Dump, error) {
	var dumps []Dump
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			// skip lines from other writers
			continue
		}
		switch rec.Msg {
		case "Send id trace":
			exc, sendID, _ := strings.Cut(rec.Reason, " ")
			dumps = append(dumps, Dump{Exception: exc, SendID: sendID})
		case "trace":
			if len(dumps) == 0 {
				continue
			}
			d := &dumps[len(dumps)-1]
			d.Calls = append(d.Calls, rec)
		}
	}
	return dumps, sc.Err()
}

func summarize(dumps []Dump) []Count {
	type key struct{ exc, call string }
	counts := make(map[key]int)
	for _, d := range dumps {
		counts[key{d.Exception, d.Failing()}]++
	}

	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Exception: k.exc, Call: k.call, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		if out[i].Exception != out[j].Exception {
			return out[i].Exception < out[j].Exception
		}
		return out[i].Call < out[j].Call
	})
	return out
}
