// Command usi is the thin USI line-loop front end: it satisfies
// engine.Handler, drives one engine.Engine, and is the only place in
// this repository allowed to write to stdout directly. Everything
// search-related lives in package engine; this file only translates
// between USI text and the engine's Go API, the way the teacher's
// cmd/uci/main.go wires its own engine package to stdin/stdout.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xu-shawn/stoat/engine"
	"github.com/xu-shawn/stoat/position"
)

var moveOverhead = 10 * time.Millisecond

func main() {
	h := &usiHandler{}
	e := engine.NewEngine(h)

	pos := position.Startpos()
	var keyHistory []uint64

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "usi":
			printID()
			fmt.Println("usiok")

		case "isready":
			e.EnsureReady()
			fmt.Println("readyok")

		case "setoption":
			handleSetOption(e, fields)

		case "usinewgame":
			e.NewGame()

		case "position":
			pos, keyHistory = handlePosition(fields)

		case "go":
			handleGo(e, &pos, keyHistory, fields)

		case "stop":
			e.Stop()

		case "quit":
			return
		}
	}
}

func printID() {
	fmt.Println("id name stoat")
	fmt.Println("id author xu-shawn")
	fmt.Println("option name Hash type spin default 64 min 1 max 131072")
	fmt.Println("option name Threads type spin default 1 min 1 max 2048")
	fmt.Println("option name MultiPV type spin default 1 min 1 max 256")
	fmt.Println("option name CuteChessWorkaround type check default false")
	fmt.Println("option name MoveOverhead type spin default 10 min 0 max 5000")
}

func handleSetOption(e *engine.Engine, fields []string) {
	name, value := parseSetOption(fields)
	switch strings.ToLower(name) {
	case "hash":
		if v, err := strconv.Atoi(value); err == nil {
			e.SetTtSize(v)
		}
	case "threads":
		if v, err := strconv.Atoi(value); err == nil {
			e.SetThreadCount(v)
		}
	case "multipv":
		if v, err := strconv.Atoi(value); err == nil {
			e.SetMultiPV(v)
		}
	case "cutechessworkaround":
		e.SetCuteChessWorkaround(strings.EqualFold(value, "true"))
	case "moveoverhead":
		if v, err := strconv.Atoi(value); err == nil {
			moveOverhead = time.Duration(v) * time.Millisecond
		}
	}
}

// parseSetOption splits "setoption name X value Y" into (X, Y); X may
// itself contain spaces, so everything between "name" and "value" is
// joined back together.
func parseSetOption(fields []string) (name, value string) {
	var nameParts, valueParts []string
	mode := 0 // 0 = skip, 1 = name, 2 = value
	for _, f := range fields[1:] {
		switch strings.ToLower(f) {
		case "name":
			mode = 1
			continue
		case "value":
			mode = 2
			continue
		}
		switch mode {
		case 1:
			nameParts = append(nameParts, f)
		case 2:
			valueParts = append(valueParts, f)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

func handlePosition(fields []string) (position.Position, []uint64) {
	if len(fields) < 2 {
		pos := position.Startpos()
		return pos, []uint64{pos.Key()}
	}

	var pos position.Position
	rest := fields[1:]

	if rest[0] == "startpos" {
		pos = position.Startpos()
		rest = rest[1:]
	} else if rest[0] == "sfen" {
		rest = rest[1:]
		end := len(rest)
		for i, f := range rest {
			if f == "moves" {
				end = i
				break
			}
		}
		sfen := strings.Join(rest[:end], " ")
		parsed, err := position.FromSFEN(sfen)
		if err != nil {
			pos = position.Startpos()
		} else {
			pos = parsed
		}
		rest = rest[end:]
	} else {
		pos = position.Startpos()
	}

	keyHistory := []uint64{pos.Key()}

	if len(rest) > 0 && rest[0] == "moves" {
		for _, usiMove := range rest[1:] {
			m, ok := findMove(&pos, usiMove)
			if !ok {
				break
			}
			pos = pos.ApplyMove(m)
			keyHistory = append(keyHistory, pos.Key())
		}
	}

	return pos, keyHistory
}

func findMove(pos *position.Position, usi string) (position.Move, bool) {
	for _, m := range pos.GenerateAll() {
		if m.String() == usi {
			return m, true
		}
	}
	return position.NullMove, false
}

func handleGo(e *engine.Engine, pos *position.Position, keyHistory []uint64, fields []string) {
	var btime, wtime, binc, winc, byoyomi, movetime time.Duration
	var depth, nodes int
	infinite := false

	for i := 1; i < len(fields); i++ {
		arg := func() string {
			if i+1 < len(fields) {
				return fields[i+1]
			}
			return "0"
		}
		switch fields[i] {
		case "infinite":
			infinite = true
		case "depth":
			depth, _ = strconv.Atoi(arg())
			i++
		case "nodes":
			nodes, _ = strconv.Atoi(arg())
			i++
		case "movetime":
			ms, _ := strconv.Atoi(arg())
			movetime = time.Duration(ms) * time.Millisecond
			i++
		case "btime":
			ms, _ := strconv.Atoi(arg())
			btime = time.Duration(ms) * time.Millisecond
			i++
		case "wtime":
			ms, _ := strconv.Atoi(arg())
			wtime = time.Duration(ms) * time.Millisecond
			i++
		case "binc":
			ms, _ := strconv.Atoi(arg())
			binc = time.Duration(ms) * time.Millisecond
			i++
		case "winc":
			ms, _ := strconv.Atoi(arg())
			winc = time.Duration(ms) * time.Millisecond
			i++
		case "byoyomi":
			ms, _ := strconv.Atoi(arg())
			byoyomi = time.Duration(ms) * time.Millisecond
			i++
		}
	}

	var limiter engine.Limiter
	switch {
	case movetime > 0:
		limiter = engine.NewMoveTimeLimiter(movetime)
	case btime > 0 || wtime > 0:
		remaining, increment := btime, binc
		if pos.Stm() == position.White {
			remaining, increment = wtime, winc
		}
		remaining -= moveOverhead
		if remaining < 0 {
			remaining = 0
		}
		movesLeft := estimateMovesLeft(pos)
		limiter = engine.NewTimeManagerLimiter(remaining, increment, byoyomi, movesLeft)
	}

	if nodes > 0 {
		nodeLimiter := &engine.NodeLimiter{MaxNodes: uint64(nodes)}
		if limiter != nil {
			limiter = engine.NewCompoundLimiter(limiter, nodeLimiter)
		} else {
			limiter = nodeLimiter
		}
	}

	maxDepth := depth
	if maxDepth <= 0 {
		maxDepth = engine.MaxDepth
	}

	if err := e.StartSearch(*pos, keyHistory, time.Now(), infinite, maxDepth, limiter); err != nil {
		fmt.Println("info string", err)
	}
}

// estimateMovesLeft is a rough phase curve — there is no opening book
// or game-length oracle in scope, so this just keeps early moves from
// eating the whole clock.
func estimateMovesLeft(pos *position.Position) int {
	played := int(pos.MoveCount())
	left := 70 - played
	if left < 10 {
		left = 10
	}
	return left
}

// usiHandler implements engine.Handler by formatting USI `info` and
// `bestmove` lines, in the shape of the teacher's rootsearch prints.
type usiHandler struct{}

func (usiHandler) PrintSearchInfo(info engine.SearchInfo) {
	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d seldepth %d multipv %d", info.Depth, info.SelDepth, info.MultiPVIdx+1)

	if info.Score.IsDecisive() {
		plies := info.Score.MateIn()
		if plies < 0 {
			plies = -plies
		}
		moves := (plies + 1) / 2
		if info.Score < 0 {
			moves = -moves
		}
		fmt.Fprintf(&b, " score mate %d", moves)
	} else {
		fmt.Fprintf(&b, " score cp %d", info.Score)
	}

	switch info.Bound {
	case engine.BoundUpper:
		b.WriteString(" upperbound")
	case engine.BoundLower:
		b.WriteString(" lowerbound")
	}

	fmt.Fprintf(&b, " nodes %d nps %d time %d hashfull %d pv",
		info.Nodes, info.NPS, info.TimeUsed.Milliseconds(), info.HashFull)
	for _, m := range info.PV {
		b.WriteString(" ")
		b.WriteString(m.String())
	}

	fmt.Println(b.String())
}

func (usiHandler) PrintInfoString(s string) {
	fmt.Println("info string " + s)
}

func (usiHandler) PrintBestMove(best, ponder position.Move) {
	if best.IsNull() {
		fmt.Println("bestmove resign")
		return
	}
	if ponder.IsNull() {
		fmt.Printf("bestmove %s\n", best)
		return
	}
	fmt.Printf("bestmove %s ponder %s\n", best, ponder)
}

func (usiHandler) HandleNoLegalMoves(pos *position.Position) {
	fmt.Println("bestmove resign")
}

func (usiHandler) HandleEnteringKingsWin(pos *position.Position) bool {
	fmt.Println("bestmove win")
	return true
}
