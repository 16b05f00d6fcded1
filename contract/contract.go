//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-sync/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Authenticator issues and verifies bearer tokens. It holds no per-user state.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (domain.Identity, string, error)
	Login(ctx context.Context, email, password string) (domain.Identity, string, error)
	Resume(ctx context.Context, token string) (domain.Identity, error)
}

// AuthProvider signs a user in and remembers who is signed in.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (domain.Identity, error)
	SignOut(ctx context.Context) error
	CurrentIdentity() (domain.Identity, bool)
}

// ConversationStore is the durable message backend.
// FetchPage returns up to pageSize messages strictly older than before (newest when nil),
// newest first. BatchMarkRead is atomic: every id is updated or none.
type ConversationStore interface {
	FetchPage(ctx context.Context, conv domain.ConversationID, filter domain.Filter, pageSize int, before *int64) ([]domain.Message, error)
	Subscribe(ctx context.Context, conv domain.ConversationID, filter domain.Filter) (Subscription, error)
	CommitMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	UpdateMessage(ctx context.Context, id string, edit domain.MessageEdit) error
	DeleteMessage(ctx context.Context, id string) error
	BatchMarkRead(ctx context.Context, ids []string, readerID string) error
	// LastMessage is the newest message of conv whatever its discriminator,
	// nil when the conversation is empty.
	LastMessage(ctx context.Context, conv domain.ConversationID) (*domain.Message, error)
}

// Subscription delivers full snapshots of the newest filter.Limit messages.
// The channel is closed once Close is called or the subscription context ends.
type Subscription interface {
	Snapshots() <-chan domain.Snapshot
	Close()
}

type BlobStore interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
}

type PushTokenRegistry interface {
	RegisterToken(ctx context.Context, identityID, token string) error
}

// LocalPreferences persists credentials on the device.
// Credentials reports false when nothing was saved.
type LocalPreferences interface {
	Credentials() (domain.Credentials, bool, error)
	SaveCredentials(creds domain.Credentials) error
	ClearCredentials() error
}

type GroupReader interface {
	GetGroup(ctx context.Context, groupID string) (domain.Group, error)
}
