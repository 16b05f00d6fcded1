package main

import (
	"chat-sync/infrastructure/blob"
	"chat-sync/infrastructure/grpc/client"
	"chat-sync/infrastructure/prefs"
	"chat-sync/runtime"
	"chat-sync/services"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the device-side environment variables.
type Config struct {
	ServerAddress   string `envconfig:"CHATSYNC_SERVER" default:"localhost:50051"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"WARN"`
	PreferencesPath string `envconfig:"CHATSYNC_PREFERENCES"`
	PushToken       string `envconfig:"CHATSYNC_PUSH_TOKEN"`
	PageSize        int    `envconfig:"CHATSYNC_PAGE_SIZE" default:"20"`
	// CHATSYNC_COLOURS enables colorized output
	Colours bool `envconfig:"CHATSYNC_COLOURS" default:"true"`
	// Attachments are uploaded by the device before the message is committed.
	BlobRoot    string `envconfig:"CHATSYNC_BLOB_ROOT" default:"./blobs"`
	BlobBaseURL string `envconfig:"CHATSYNC_BLOB_BASE_URL"`
}

const usage = `usage: chatsync <command> [args]

  signup <email>            create an account and sign in
  signin <email>            sign in
  signout                   forget the stored credentials
  whoami                    show the signed-in user
  users [query]             search the user directory with last messages
  profile <username>        change the username
  groups                    list your groups
  group-create <name> [member...]
  group-add <group> <member>
  group-remove <group> <member>
  group-rename <group> <name>
  history <peer>            print the latest page of a conversation
  chat <peer>               open a conversation (-group for a group id)
`

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return exitConfig, nil
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(log, config)
	if err != nil {
		return exitConfig, err
	}
	defer app.close()

	if err := app.dispatch(ctx, args[0], args[1:]); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// app holds the device: its sign-in state and the remote collaborators.
type app struct {
	log      *slog.Logger
	config   Config
	out      *printer
	conn     *grpc.ClientConn
	device   *services.DeviceAuth
	store    *client.ConversationClient
	groups   *client.GroupClient
	users    *client.UserClient
	previews *services.Previews
	blobs    *blob.DiskStore
	session  runtime.SessionConfig
}

func newApp(log *slog.Logger, config Config) (*app, error) {
	path := config.PreferencesPath
	if path == "" {
		var err error
		if path, err = prefs.DefaultPath(); err != nil {
			return nil, err
		}
	}
	blobs, err := blob.NewDiskStore(config.BlobRoot, config.BlobBaseURL)
	if err != nil {
		return nil, err
	}

	a := &app{log: log, config: config, out: newPrinter(os.Stdout, config.Colours), blobs: blobs}
	conn, err := client.Dial(log, config.ServerAddress, func() string { return a.device.Token() })
	if err != nil {
		return nil, err
	}
	a.conn = conn
	a.store = client.NewConversationClient(log, conn)
	a.groups = client.NewGroupClient(conn)
	a.users = client.NewUserClient(conn)
	a.previews = services.NewPreviews(log, a.store)
	a.device = services.NewDeviceAuth(log, client.NewAuthClient(conn), prefs.NewFilePreferences(path))
	if config.PushToken != "" {
		a.device.WithPushToken(a.users, config.PushToken)
	}

	a.session = runtime.DefaultSessionConfig()
	if config.PageSize > 0 {
		a.session.PageSize = config.PageSize
	}
	return a, nil
}

func (a *app) close() {
	_ = a.conn.Close()
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "signup":
		return a.signUp(ctx, args)
	case "signin":
		return a.signIn(ctx, args)
	case "signout":
		return a.device.SignOut(ctx)
	case "whoami":
		return a.whoAmI(ctx)
	case "users":
		return a.searchUsers(ctx, args)
	case "profile":
		return a.updateProfile(ctx, args)
	case "groups":
		return a.listGroups(ctx)
	case "group-create":
		return a.createGroup(ctx, args)
	case "group-add", "group-remove":
		return a.changeMember(ctx, command == "group-add", args)
	case "group-rename":
		return a.renameGroup(ctx, args)
	case "history":
		return a.history(ctx, args)
	case "chat":
		fs := flag.NewFlagSet("chat", flag.ContinueOnError)
		group := fs.Bool("group", false, "the argument is a group id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return a.chat(ctx, fs.Args(), *group)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
