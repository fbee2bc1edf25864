// Package dispatch interprets a single decoded command line against a
// session.State and produces a Response: text, a binary payload, or an
// error message. It is the only package that knows the command grammar.
package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erismart/tectonic/pkg/dtf"
	"github.com/erismart/tectonic/pkg/parser"
	"github.com/erismart/tectonic/pkg/session"
	"github.com/erismart/tectonic/pkg/store"
)

const helpText = `PING, INFO, USE [db], CREATE [db],
ADD [ts],[seq],[is_trade],[is_bid],[price],[size];
BULKADD ...; DDAKLUB
FLUSH, FLUSH ALL, GET ALL, GET [count], CLEAR
`

// Response is the tri-state outcome of dispatching one command: exactly one
// of Text, Binary, or Err is meaningful (Text may legitimately be "").
type Response struct {
	Text   string
	Binary []byte
	IsErr  bool
	Err    string
}

func text(s string) Response   { return Response{Text: s} }
func binary(b []byte) Response { return Response{Binary: b} }
func errResp(s string) Response {
	return Response{IsErr: true, Err: s}
}

// GenResponse dispatches line against state, mutating it as needed.
func GenResponse(line string, state *session.State) Response {
	switch line {
	case "":
		return text("")
	case "PING":
		return text("PONG.\n")
	case "HELP":
		return text(helpText)
	case "INFO":
		return text(info(state))
	case "BULKADD":
		state.IsAdding = true
		return text("")
	case "DDAKLUB":
		state.IsAdding = false
		return text("1\n")
	case "GET ALL AS JSON":
		return getAllAsJSON(state)
	case "GET ALL":
		return getAll(state)
	case "CLEAR":
		return clearCurrent(state)
	case "CLEAR ALL":
		return clearAll(state)
	case "FLUSH":
		return flushCurrent(state)
	case "FLUSH ALL":
		return flushAll(state)
	}

	switch {
	case state.IsAdding:
		return handleBulkLine(line, state)
	case strings.HasPrefix(line, "ADD "):
		return handleAdd(line, state)
	case strings.HasPrefix(line, "CREATE "):
		return handleCreate(line, state)
	case strings.HasPrefix(line, "USE "):
		return handleUse(line, state)
	case strings.HasPrefix(line, "GET "):
		return handleGet(line, state)
	default:
		return errResp("Unsupported command.")
	}
}

func info(state *session.State) string {
	var parts []string
	for _, st := range state.Store {
		parts = append(parts, fmt.Sprintf(`{"name": "%s", "in_memory": %t, "count": %d}`, st.Name, st.InMemory, st.Size))
	}
	return fmt.Sprintf("[%s]\n", strings.Join(parts, ", "))
}

func getAllAsJSON(state *session.State) Response {
	st, ok := state.Store[state.CurrentStoreName]
	if !ok {
		return errResp(fmt.Sprintf("State does not contain %s", state.CurrentStoreName))
	}
	return text(fmt.Sprintf("[%s]\n", dtf.UpdateVecToJSON(st.V)))
}

func getAll(state *session.State) Response {
	b, ok, err := state.Get(-1)
	if err != nil {
		return errResp(err.Error())
	}
	if !ok {
		return errResp("Failed to GET ALL.")
	}
	return binary(b)
}

func clearCurrent(state *session.State) Response {
	st, ok := state.Store[state.CurrentStoreName]
	if !ok {
		return errResp(fmt.Sprintf("State does not contain %s", state.CurrentStoreName))
	}
	if err := st.Clear(); err != nil {
		return errResp(err.Error())
	}
	return text("1\n")
}

func clearAll(state *session.State) Response {
	for _, st := range state.Store {
		if err := st.Clear(); err != nil {
			return errResp(err.Error())
		}
	}
	return text("1\n")
}

func flushCurrent(state *session.State) Response {
	st, ok := state.Store[state.CurrentStoreName]
	if !ok {
		return errResp(fmt.Sprintf("State does not contain %s", state.CurrentStoreName))
	}
	if err := st.Flush(); err != nil {
		return errResp(err.Error())
	}
	return text("1\n")
}

func flushAll(state *session.State) Response {
	for _, st := range state.Store {
		if err := st.Flush(); err != nil {
			return errResp(err.Error())
		}
	}
	return text("1\n")
}

func handleBulkLine(line string, state *session.State) Response {
	up, ok := parser.ParseLine(line)
	if !ok {
		return errResp("Unable to parse line in BULKALL")
	}
	if err := state.Add(up); err != nil {
		return errResp(err.Error())
	}
	if err := state.Autoflush(); err != nil {
		return errResp(err.Error())
	}
	return text("")
}

func handleAdd(line string, state *session.State) Response {
	const intoMarker = " INTO "
	if idx := strings.Index(line, intoMarker); idx != -1 {
		dbName := line[idx+len(intoMarker):]
		if idx-2 < 3 {
			return errResp("Parse ADD INTO")
		}
		data := line[3 : idx-2]
		up, ok := parser.ParseLine(data)
		if !ok {
			return errResp("Parse ADD INTO")
		}
		if err := state.Insert(up, dbName); err != nil {
			return errResp(err.Error())
		}
		if err := state.Autoflush(); err != nil {
			return errResp(err.Error())
		}
		return text("1\n")
	}

	data := line[3:]
	up, ok := parser.ParseLine(data)
	if !ok {
		return errResp("Parse ADD")
	}
	if err := state.Add(up); err != nil {
		return errResp(err.Error())
	}
	if err := state.Autoflush(); err != nil {
		return errResp(err.Error())
	}
	return text("1\n")
}

func handleCreate(line string, state *session.State) Response {
	dbName := line[len("CREATE "):]
	state.Store[dbName] = store.New(dbName, state.Settings.DtfFolder)
	return text(fmt.Sprintf("Created DB `%s`.\n", dbName))
}

func handleUse(line string, state *session.State) Response {
	dbName := line[len("USE "):]
	st, ok := state.Store[dbName]
	if !ok {
		return errResp(fmt.Sprintf("State does not contain %s", dbName))
	}
	state.CurrentStoreName = dbName
	if err := st.Load(); err != nil {
		return errResp(err.Error())
	}
	return text(fmt.Sprintf("SWITCHED TO DB `%s`.\n", dbName))
}

func handleGet(line string, state *session.State) Response {
	rest := line[len("GET "):]
	fields := strings.SplitN(rest, " ", 2)
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return errResp(fmt.Sprintf("invalid GET count: %v", err))
	}

	if strings.Contains(line, "AS JSON") {
		st, ok := state.Store[state.CurrentStoreName]
		if !ok {
			return errResp(fmt.Sprintf("State does not contain %s", state.CurrentStoreName))
		}
		if int(st.Size) <= count || st.Size == 0 {
			return errResp("Requested too many")
		}
		if count < 0 || count > len(st.V) {
			return errResp("Requested too many")
		}
		return text(fmt.Sprintf("[%s]\n", dtf.UpdateVecToJSON(st.V[:count])))
	}

	b, ok, err := state.Get(count)
	if err != nil {
		return errResp(err.Error())
	}
	if !ok {
		return errResp(fmt.Sprintf("Failed to get %d.", count))
	}
	return binary(b)
}
