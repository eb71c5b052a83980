package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cwrk-planet/coderoom/config"
	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/identity"
	"github.com/cwrk-planet/coderoom/internal/roomapi"
	"github.com/cwrk-planet/coderoom/internal/sandbox"
	grpcx "github.com/cwrk-planet/coderoom/internal/transport/grpc"
	"github.com/cwrk-planet/coderoom/internal/transport/http/httputil"
	"github.com/cwrk-planet/coderoom/pkg/logger"

	"github.com/google/uuid"
)

const usage = `usage: coderoom <command> [flags]

commands:
  new    [-lang js|python]             create a room and print its id
  join   [-name NAME] <room-id>        join a room interactively
  run    [-lang L] [-room ID] <file>   run a file locally, or on the server with -room
  health                               check the room service (HTTP and gRPC)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateClient(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// логи в stderr: stdout занят интерактивным выводом
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   "coderoom",
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     clientLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = httputil.WithRequestID(ctx, uuid.NewString())

	args := os.Args[2:]
	switch os.Args[1] {
	case "new":
		err = cmdNew(ctx, cfg, args)
	case "join":
		err = cmdJoin(ctx, cfg, args)
	case "run":
		err = cmdRun(ctx, cfg, args)
	case "health":
		err = cmdHealth(ctx, cfg, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "coderoom:", err)
		os.Exit(1)
	}
}

// по умолчанию CLI молчит ниже warn, чтобы не засорять терминал
func clientLevel(s string) slog.Level {
	if s == "" {
		return logger.ParseLevel("warn")
	}
	return logger.ParseLevel(s)
}

func newAPI(cfg *config.Config, server string) (*roomapi.Client, error) {
	if server == "" {
		server = cfg.Client.ServerURL
	}
	return roomapi.New(roomapi.Options{
		BaseURL: server,
		Timeout: config.ParseDurationOr(5*time.Second, cfg.Client.RequestTimeout),
	})
}

func newSandbox(cfg *config.Config) *sandbox.Sandbox {
	return sandbox.New(sandbox.Config{
		PythonWasm: cfg.Sandbox.PythonWasm,
		PythonHome: cfg.Sandbox.PythonHome,
		Timeout:    config.ParseDurationOr(0, cfg.Sandbox.Timeout),
	})
}

func cmdNew(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	lang := fs.String("lang", "javascript", "room language: js|python")
	server := fs.String("server", "", "room service URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	l, err := domain.ParseLanguage(*lang)
	if err != nil {
		return err
	}
	api, err := newAPI(cfg, *server)
	if err != nil {
		return err
	}
	room, err := api.CreateRoom(ctx, l)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n\njoin with: coderoom join %s\n", room.ID, room.ID)
	return nil
}

func cmdJoin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	server := fs.String("server", "", "room service URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("join: room id is required")
	}

	api, err := newAPI(cfg, *server)
	if err != nil {
		return err
	}
	idPath := cfg.Client.IdentityFile
	if idPath == "" {
		idPath = identity.DefaultPath()
	}
	idFile := identity.NewFile(idPath)

	// имя: флаг, затем конфиг, затем сохранённое с прошлой сессии
	displayName := firstNonEmpty(*name, cfg.Client.Name, idFile.LoadName())

	serverURL := *server
	if serverURL == "" {
		serverURL = cfg.Client.ServerURL
	}
	sb := newSandbox(cfg)
	defer func() { _ = sb.Close(context.Background()) }()

	sess, err := openSession(ctx, sessionConfig{
		ServerURL:        serverURL,
		RoomID:           fs.Arg(0),
		Name:             displayName,
		Identity:         idFile,
		API:              api,
		Executor:         sb,
		ParticipantsPoll: config.ParseDurationOr(0, cfg.Client.ParticipantsPoll),
	}, os.Stdout)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return fmt.Errorf("room %s not found", fs.Arg(0))
	}
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Loop(ctx, os.Stdin)
}

func cmdRun(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	lang := fs.String("lang", "", "language (default: from file extension)")
	roomID := fs.String("room", "", "execute on the room service instead of locally")
	server := fs.String("server", "", "room service URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("run: file is required")
	}
	path := fs.Arg(0)
	code, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	l, err := languageFor(*lang, path)
	if err != nil {
		return err
	}

	var res domain.ExecutionResult
	if *roomID != "" {
		api, err := newAPI(cfg, *server)
		if err != nil {
			return err
		}
		if res, err = api.Execute(ctx, *roomID, string(code), l); err != nil {
			return err
		}
	} else {
		sb := newSandbox(cfg)
		defer func() { _ = sb.Close(context.Background()) }()
		res = sb.Execute(ctx, string(code), l)
	}

	fmt.Print(res.Output)
	if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
		fmt.Println()
	}
	fmt.Fprintf(os.Stderr, "(%d ms)\n", res.ExecutionTimeMs)
	if res.Failed() {
		return errors.New(res.ErrorText())
	}
	return nil
}

func cmdHealth(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	server := fs.String("server", "", "room service URL")
	target := fs.String("grpc", cfg.Client.GRPCTarget, "gRPC target")
	if err := fs.Parse(args); err != nil {
		return err
	}
	api, err := newAPI(cfg, *server)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpErr := api.Health(ctx)
	reqID, _ := httputil.FromContext(ctx)
	grpcErr := grpcx.Probe(ctx, *target, grpcx.ServiceName, reqID)

	fmt.Printf("http: %s\ngrpc: %s\n", status(httpErr), status(grpcErr))
	return errors.Join(httpErr, grpcErr)
}

func status(err error) string {
	if err != nil {
		return "DOWN (" + err.Error() + ")"
	}
	return "SERVING"
}

func languageFor(flagValue, path string) (domain.Language, error) {
	if flagValue != "" {
		return domain.ParseLanguage(flagValue)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return domain.LanguagePython, nil
	case ".js", ".mjs", ".cjs":
		return domain.LanguageJavaScript, nil
	}
	return "", fmt.Errorf("cannot infer language of %s, use -lang", path)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
