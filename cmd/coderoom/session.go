package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/identity"
	"github.com/cwrk-planet/coderoom/internal/realtime"
	"github.com/cwrk-planet/coderoom/internal/roomapi"
	"github.com/cwrk-planet/coderoom/internal/run"
	"github.com/cwrk-planet/coderoom/internal/sandbox"
	"github.com/cwrk-planet/coderoom/internal/store"
)

type sessionConfig struct {
	ServerURL        string
	RoomID           string
	Name             string
	Identity         *identity.File
	API              *roomapi.Client
	Executor         run.Executor
	ParticipantsPoll time.Duration
}

// session — одна комната в терминале: стор, канал и координатор запусков.
type session struct {
	out   io.Writer
	outMu sync.Mutex

	store *store.Store
	ch    *realtime.Channel
	coord *run.Coordinator

	runs sync.WaitGroup
}

// openSession загружает комнату и подключается к relay. ErrRoomNotFound
// возвращается до открытия соединения.
func openSession(ctx context.Context, cfg sessionConfig, out io.Writer) (*session, error) {
	wsURL, err := realtime.RoomURL(cfg.ServerURL, cfg.RoomID)
	if err != nil {
		return nil, err
	}
	ch := realtime.New(wsURL)

	opts := []store.Option{store.WithUserName(cfg.Name)}
	if cfg.Identity != nil {
		opts = append(opts, store.WithNameSaver(cfg.Identity))
	}
	st := store.New(cfg.API, ch, opts...)
	st.Attach(ch)

	exec := cfg.Executor
	if exec == nil {
		exec = sandbox.New(sandbox.Config{})
	}
	coord := run.NewCoordinator(exec, st, ch)
	coord.Attach(ch)

	s := &session{out: out, store: st, ch: ch, coord: coord}

	if err := st.Load(ctx, cfg.RoomID); err != nil {
		return nil, err
	}
	st.OnChange(s.render)

	ch.Join(st.UserName())
	ch.Connect(ctx)

	if cfg.ParticipantsPoll > 0 {
		go st.PollParticipants(ctx, cfg.ParticipantsPoll)
	}

	s.printf("joined room %s as %s (:help for commands)\n", cfg.RoomID, st.UserName())
	return s, nil
}

// Loop читает команды до :quit, EOF или отмены ctx.
func (s *session) Loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64<<10), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	lost := s.ch.Done()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lost:
			s.printf("· relay connection closed, live updates stopped\n")
			lost = nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if s.handle(ctx, line) {
				return nil
			}
		}
	}
}

func (s *session) Close() {
	s.ch.Disconnect()
	s.runs.Wait()
}

// handle выполняет одну строку; true — выйти.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		s.report(s.store.SendChat(line))
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		s.printf("%s", helpText)
	case ":run":
		s.startRun(ctx)
	case ":lang":
		lang, err := domain.ParseLanguage(arg)
		if err != nil {
			s.report(err)
			return false
		}
		s.report(s.store.UpdateLanguage(ctx, lang))
	case ":task":
		s.report(s.store.UpdateTask(ctx, arg, nil))
	case ":title":
		room, ok := s.store.Room()
		if !ok {
			s.report(domain.ErrNotReady)
			return false
		}
		s.report(s.store.UpdateTask(ctx, room.Task, &arg))
	case ":load":
		s.report(s.store.LoadTask(ctx, arg))
	case ":tasks":
		for _, t := range domain.TaskLibrary() {
			s.printf("  %-16s %-10s %-7s %s\n", t.ID, t.Language, t.Difficulty, t.Title)
		}
	case ":code":
		data, err := os.ReadFile(arg)
		if err != nil {
			s.report(err)
			return false
		}
		s.report(s.store.UpdateCode(ctx, string(data)))
	case ":show":
		s.show()
	case ":who":
		s.who()
	default:
		s.printf("unknown command %s (:help)\n", cmd)
	}
	return false
}

// startRun не блокирует ввод: чат и правки продолжают работать во время запуска.
func (s *session) startRun(ctx context.Context) {
	if s.coord.Running() {
		s.report(domain.ErrRunInProgress)
		return
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		if _, err := s.coord.Run(ctx); err != nil {
			s.report(err)
		}
	}()
}

func (s *session) render(c store.Change) {
	switch c {
	case store.ChangeStatus:
		if st := s.store.Status(); st != store.StatusReady {
			s.printf("· room status: %s\n", st)
		}
	case store.ChangeCode:
		if room, ok := s.store.Room(); ok {
			s.printf("· code updated (%d lines)\n", strings.Count(room.Code, "\n")+1)
		}
	case store.ChangeTask:
		if room, ok := s.store.Room(); ok {
			s.printf("· task: %s\n", taskHeader(room))
		}
	case store.ChangeLanguage:
		if room, ok := s.store.Room(); ok {
			s.printf("· language: %s\n", room.Language)
		}
	case store.ChangeParticipants:
		s.who()
	case store.ChangeChat:
		chat := s.store.Chat()
		if len(chat) > 0 {
			m := chat[len(chat)-1]
			s.printf("[%s] %s: %s\n", m.Received.Format("15:04"), m.UserName, m.Text)
		}
	case store.ChangeOutput:
		if res, ok := s.store.Output(); ok {
			s.printOutput(res)
		}
	case store.ChangeIdentity:
		s.printf("· you are %s\n", s.store.UserName())
	}
}

func (s *session) show() {
	room, ok := s.store.Room()
	if !ok {
		s.printf("· room status: %s\n", s.store.Status())
		return
	}
	s.printf("room %s · %s\n", room.ID, room.Language)
	if room.Task != "" {
		s.printf("task: %s\n", taskHeader(room))
	}
	s.printf("----\n%s\n----\n", room.Code)
	if res, ok := s.store.Output(); ok {
		s.printOutput(res)
	}
}

func (s *session) who() {
	parts := s.store.Participants()
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		n := p.Name
		if !p.IsOnline {
			n += " (offline)"
		}
		names = append(names, n)
	}
	s.printf("· participants: %s\n", strings.Join(names, ", "))
}

func (s *session) printOutput(res domain.ExecutionResult) {
	s.printf("== output (%d ms) ==\n%s", res.ExecutionTimeMs, res.Output)
	if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
		s.printf("\n")
	}
	if res.Failed() {
		s.printf("== error ==\n%s\n", res.ErrorText())
	}
}

func (s *session) report(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		s.printf("· a run is already in progress\n")
	case errors.Is(err, domain.ErrTaskNotFound):
		s.printf("· unknown task (:tasks)\n")
	default:
		s.printf("· %v\n", err)
	}
}

func (s *session) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func taskHeader(room domain.Room) string {
	if room.TaskTitle != nil && *room.TaskTitle != "" {
		return *room.TaskTitle + ": " + room.Task
	}
	return room.Task
}

const helpText = `commands:
  :run              run the room's code
  :lang <js|python> switch language
  :task <text>      set the task description
  :title <text>     set the task title
  :load <task-id>   load a task from the library
  :tasks            list the task library
  :code <file>      replace the code with a file's contents
  :show             print task, code and last output
  :who              list participants
  :quit             leave the room
anything else is sent to the chat
`
