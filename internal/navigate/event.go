package navigate

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/matclass/internal/hierarchy"
)

// EventType tags an Event.
type EventType string

const (
	EventCandidates EventType = "candidates"
	EventStep       EventType = "step"
	EventBacktrack  EventType = "backtrack"
	EventInfo       EventType = "info"
	EventFinal      EventType = "final"
)

// Event is one entry of a classification trace. Data holds the payload
// struct matching Type.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type CandidatesData struct {
	Options []hierarchy.Option `json:"opcoes"`
}

type StepData struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
	Auto        bool   `json:"auto"`
}

type BacktrackData struct {
	Code   string `json:"codigo"`
	Reason string `json:"razao"`
}

type InfoData struct {
	Msg string `json:"msg"`
}

type FinalData struct {
	Code        string             `json:"codigo_final"`
	Description string             `json:"descricao_final"`
	Path        []hierarchy.Option `json:"caminho"`
}

func candidatesEvent(opts []hierarchy.Option) Event {
	return Event{Type: EventCandidates, Data: CandidatesData{Options: opts}}
}

func stepEvent(o hierarchy.Option, auto bool) Event {
	return Event{Type: EventStep, Data: StepData{Code: o.Code, Description: o.Description, Auto: auto}}
}

func backtrackEvent(code, reason string) Event {
	return Event{Type: EventBacktrack, Data: BacktrackData{Code: code, Reason: reason}}
}

func infoEvent(format string, args ...any) Event {
	return Event{Type: EventInfo, Data: InfoData{Msg: fmt.Sprintf(format, args...)}}
}

func finalEvent(code, description string, path []hierarchy.Option) Event {
	if path == nil {
		path = []hierarchy.Option{}
	}
	return Event{Type: EventFinal, Data: FinalData{Code: code, Description: description, Path: path}}
}

// UnmarshalJSON decodes Data into the payload struct named by Type.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var data any
	var err error
	switch raw.Type {
	case EventCandidates:
		var d CandidatesData
		err = json.Unmarshal(raw.Data, &d)
		data = d
	case EventStep:
		var d StepData
		err = json.Unmarshal(raw.Data, &d)
		data = d
	case EventBacktrack:
		var d BacktrackData
		err = json.Unmarshal(raw.Data, &d)
		data = d
	case EventInfo:
		var d InfoData
		err = json.Unmarshal(raw.Data, &d)
		data = d
	case EventFinal:
		var d FinalData
		err = json.Unmarshal(raw.Data, &d)
		data = d
	default:
		return fmt.Errorf("unknown event type %q", raw.Type)
	}
	if err != nil {
		return fmt.Errorf("decode %s event: %w", raw.Type, err)
	}
	e.Type = raw.Type
	e.Data = data
	return nil
}

// Replay rebuilds the accepted path from the step and backtrack events of a
// trace. A backtrack pops the most recent step.
func Replay(events []Event) []hierarchy.Option {
	path := []hierarchy.Option{}
	for _, ev := range events {
		switch d := ev.Data.(type) {
		case StepData:
			path = append(path, hierarchy.Option{Code: d.Code, Description: d.Description})
		case BacktrackData:
			if n := len(path); n > 0 && path[n-1].Code == d.Code {
				path = path[:n-1]
			}
		}
	}
	return path
}

// Final returns the payload of the final event, if the trace has one.
func Final(events []Event) (FinalData, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if d, ok := events[i].Data.(FinalData); ok {
			return d, true
		}
	}
	return FinalData{}, false
}
