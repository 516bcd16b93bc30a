// Package conversation implements the per-operator input-collection state
// machine that drives fetching, advancing, and document generation.
package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/etpflow/etpflow/internal/domain"
	"github.com/etpflow/etpflow/internal/observability"
	"github.com/etpflow/etpflow/internal/pipeline"
	"github.com/etpflow/etpflow/internal/session"
)

// Actions triggered by operator button presses.
const (
	ActionSourceMP = "source_mp"
	ActionSourceUP = "source_up"
	ActionLogin    = "login_process"
	ActionGenerate = "generate_pdf"
	ActionRestart  = "start_again"
	ActionExit     = "exit_process"

	// actionDocPrefix prefixes per-document re-send actions.
	actionDocPrefix = "doc_"
)

// Button is one choice offered to the operator.
type Button struct {
	Label  string
	Action string
}

// Sink receives everything the machine says back to the operator. The
// transport adapter (Telegram, console) implements it.
type Sink interface {
	// Message delivers a plain text line.
	Message(userID int64, text string)
	// Menu delivers a text prompt with action buttons.
	Menu(userID int64, text string, buttons []Button)
	// Document delivers a generated document file.
	Document(userID int64, identifier, path string) error
}

// Machine sequences the workflow states for every operator and invokes
// the fetch, advance, and generation collaborators at the right points.
type Machine struct {
	logger   *observability.Logger
	sessions *session.Store
	fetchers map[domain.Source]domain.Fetcher
	advancer domain.Advancer
	pipeline *pipeline.Pipeline
	sink     Sink
}

// NewMachine creates a conversation machine.
func NewMachine(
	logger *observability.Logger,
	sessions *session.Store,
	fetchers map[domain.Source]domain.Fetcher,
	advancer domain.Advancer,
	pipe *pipeline.Pipeline,
	sink Sink,
) *Machine {
	return &Machine{
		logger:   logger,
		sessions: sessions,
		fetchers: fetchers,
		advancer: advancer,
		pipeline: pipe,
		sink:     sink,
	}
}

// Start begins a fresh workflow for the user, replacing any prior session.
func (m *Machine) Start(userID int64) {
	m.sessions.Begin(userID)
	m.logger.Debug().Int64("user_id", userID).Msg("Session started")

	m.sink.Menu(userID, "Please select a state:", []Button{
		{Label: "MP", Action: ActionSourceMP},
		{Label: "UP", Action: ActionSourceUP},
	})
}

// Cancel aborts the current workflow. Whatever the session already
// collected stays as is.
func (m *Machine) Cancel(userID int64) {
	m.sessions.With(userID, func(s *session.Session) {
		s.State = domain.StateDone
	})
	m.sink.Message(userID, "Operation cancelled.")
}

// HandleText processes free-form operator input according to the current
// conversation state.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) {
	found := m.sessions.With(userID, func(s *session.Session) {
		switch s.State {
		case domain.StateSelectSource:
			m.sink.Message(userID, "Please choose a state from the menu.")

		case domain.StateAwaitStart:
			n, ok := parseNumber(text)
			if !ok {
				m.sink.Message(userID, "Please enter a valid number.")
				return
			}
			s.RangeStart = n
			s.State = domain.StateAwaitEnd
			m.sink.Message(userID, "Got it. Now enter the end number:")

		case domain.StateAwaitEnd:
			n, ok := parseNumber(text)
			if !ok {
				m.sink.Message(userID, "Please enter a valid number.")
				return
			}
			s.RangeEnd = n
			s.State = domain.StateAwaitDistrict
			m.sink.Message(userID, "Now, please enter the district name:")

		case domain.StateAwaitDistrict:
			s.District = strings.TrimSpace(text)
			s.State = domain.StateDone
			m.runFetch(ctx, s)

		default:
			m.sink.Message(userID, "Use the buttons above, or send /start to begin again.")
		}
	})

	if !found {
		m.expired(userID)
	}
}

// HandleAction processes a button press.
func (m *Machine) HandleAction(ctx context.Context, userID int64, action string) {
	// Restart and exit tear the session down and work even without one.
	switch action {
	case ActionRestart:
		m.sessions.End(userID)
		m.sink.Message(userID, "Restarting. Send /start to begin again.")
		return
	case ActionExit:
		m.sessions.End(userID)
		m.sink.Message(userID, "Exiting process. Session ended.")
		return
	}

	found := m.sessions.With(userID, func(s *session.Session) {
		switch {
		case action == ActionSourceMP || action == ActionSourceUP:
			m.selectSource(s, action)
		case action == ActionLogin:
			m.runAdvance(ctx, s)
		case action == ActionGenerate:
			m.runGenerate(ctx, s)
		case strings.HasPrefix(action, actionDocPrefix):
			m.resendDocument(s, strings.TrimPrefix(action, actionDocPrefix))
		default:
			m.logger.Warn().
				Int64("user_id", userID).
				Str("action", action).
				Msg("Unknown action")
		}
	})

	if !found {
		m.expired(userID)
	}
}

func (m *Machine) selectSource(s *session.Session, action string) {
	if s.State != domain.StateSelectSource {
		m.sink.Message(s.UserID, "A state is already selected. Send /start to begin again.")
		return
	}

	source := domain.SourceMP
	if action == ActionSourceUP {
		source = domain.SourceUP
	}

	s.Source = source
	s.State = domain.StateAwaitStart
	m.sink.Message(s.UserID, fmt.Sprintf("You selected %s. Please enter the start number:", source))
}

// runFetch invokes the fetch collaborator exactly once per completed
// input sequence, streaming each record to the operator as it arrives.
func (m *Machine) runFetch(ctx context.Context, s *session.Session) {
	fetcher, ok := m.fetchers[s.Source]
	if !ok {
		m.sink.Message(s.UserID, "Unknown state selected.")
		return
	}

	m.sink.Message(s.UserID, fmt.Sprintf("Fetching data for %s, district: %s...", s.Source, s.District))

	m.logger.Info().
		Int64("user_id", s.UserID).
		Str("source", string(s.Source)).
		Int("range_start", s.RangeStart).
		Int("range_end", s.RangeEnd).
		Str("district", s.District).
		Msg("Fetching permit records")

	err := fetcher.Fetch(ctx, s.RangeStart, s.RangeEnd, s.District, func(record domain.Record) error {
		m.sink.Message(s.UserID, formatRecord(record))
		s.Records = append(s.Records, record)
		return nil
	})
	if err != nil {
		m.logger.Warn().Int64("user_id", s.UserID).Err(err).Msg("Fetch failed")
		m.sink.Message(s.UserID, fmt.Sprintf("Fetching stopped early: %v", err))
	}

	if len(s.Records) == 0 {
		m.sink.Message(s.UserID, "No data found.")
		return
	}

	buttons := []Button{{Label: "Start Again", Action: ActionRestart}}
	if s.Source == domain.SourceUP {
		buttons = append(buttons, Button{Label: "Login & Process", Action: ActionLogin})
	}
	buttons = append(buttons, Button{Label: "Exit", Action: ActionExit})

	m.sink.Menu(s.UserID, "Data fetched. What would you like to do next?", buttons)
}

// runAdvance logs into the issuing portal and advances the fetched
// records, then derives the identifier list eligible for generation.
func (m *Machine) runAdvance(ctx context.Context, s *session.Session) {
	if len(s.Records) == 0 {
		m.sink.Message(s.UserID, "No data to process.")
		return
	}

	m.sink.Message(s.UserID, "Logging in and processing...")

	err := m.advancer.Advance(ctx, s.Records, func(line string) {
		m.sink.Message(s.UserID, line)
	})
	if err != nil {
		m.logger.Warn().Int64("user_id", s.UserID).Err(err).Msg("Advance failed")
		m.sink.Message(s.UserID, fmt.Sprintf("Login and processing failed: %v", err))
		return
	}

	s.Eligible = s.Eligible[:0]
	for _, record := range s.Records {
		s.Eligible = append(s.Eligible, record.Identifier)
	}

	m.sink.Menu(s.UserID, "Click below to generate documents.", []Button{
		{Label: "Generate PDF", Action: ActionGenerate},
		{Label: "Exit", Action: ActionExit},
	})
}

// runGenerate invokes the batch pipeline over the eligible identifiers,
// streaming log lines and delivering each document as it is produced.
func (m *Machine) runGenerate(ctx context.Context, s *session.Session) {
	if len(s.Eligible) == 0 {
		m.sink.Message(s.UserID, "No permit numbers found.")
		return
	}

	result := m.pipeline.Generate(ctx, s.Eligible, pipeline.Options{
		OnLog: func(line string) {
			m.sink.Message(s.UserID, line)
		},
		OnDocument: func(identifier, path string) error {
			return m.sink.Document(s.UserID, identifier, path)
		},
	})

	s.Documents = result.Documents

	if len(result.Documents) == 0 {
		m.sink.Message(s.UserID, "No documents could be generated.")
		return
	}

	buttons := make([]Button, 0, len(result.Documents)+1)
	for _, doc := range result.Documents {
		buttons = append(buttons, Button{
			Label:  doc.Identifier + ".pdf",
			Action: actionDocPrefix + doc.Identifier,
		})
	}
	buttons = append(buttons, Button{Label: "Exit", Action: ActionExit})

	m.sink.Menu(s.UserID, "Tap a document below to receive it again:", buttons)
}

// resendDocument re-delivers one previously generated document.
func (m *Machine) resendDocument(s *session.Session, identifier string) {
	for _, doc := range s.Documents {
		if doc.Identifier == identifier {
			if err := m.sink.Document(s.UserID, doc.Identifier, doc.Path); err != nil {
				m.sink.Message(s.UserID, "Document not found.")
			}
			return
		}
	}
	m.sink.Message(s.UserID, "Document not found.")
}

func (m *Machine) expired(userID int64) {
	m.sink.Message(userID, "Session expired. Send /start to begin again.")
}

func parseNumber(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatRecord(r domain.Record) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		r.Identifier,
		r.DestinationDistrict,
		r.DestinationAddress,
		r.QuantityToTransport,
		r.GeneratedOn,
	)
}
