package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"agladiator/internal/bootstrap"
)

const (
	remoteScheme  = "grpc://"
	builtinScheme = "builtin:"
)

// Loader turns an agent source into a Handle:
//
//	grpc://host:port  agent process behind the AgentService contract
//	builtin:<name>    agent registered with the loader
//	anything else     Go source file, relative to the agent directory
type Loader struct {
	log         *zap.SugaredLogger
	dir         string
	loadTimeout time.Duration
	moveTimeout time.Duration
	dialOpts    []grpc.DialOption

	mu       sync.RWMutex
	builtins map[string]func() Agent
}

func NewLoader(cfg bootstrap.Config, log *zap.SugaredLogger, dialOpts ...grpc.DialOption) *Loader {
	return &Loader{
		log:         log,
		dir:         cfg.AgentDir,
		loadTimeout: cfg.AgentLoadTimeout,
		moveTimeout: cfg.AgentMoveTimeout,
		dialOpts:    dialOpts,
		builtins: map[string]func() Agent{
			"first":  First,
			"random": Random,
		},
	}
}

// Register makes builtin:<name> resolve to a fresh agent from factory.
func (l *Loader) Register(name string, factory func() Agent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.builtins[name] = factory
}

// Load never fails: a source that cannot be loaded yields an unavailable
// handle carrying the reason.
func (l *Loader) Load(ctx context.Context, source string) *Handle {
	a, err := l.resolve(ctx, source)
	if err != nil {
		l.log.Warnw("agent failed to load", "source", source, "error", err)
		return Unavailable(source, err)
	}
	return NewHandle(source, a, l.moveTimeout)
}

func (l *Loader) resolve(ctx context.Context, source string) (Agent, error) {
	if l.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.loadTimeout)
		defer cancel()
	}

	switch {
	case source == "":
		return nil, fmt.Errorf("empty agent source")
	case strings.HasPrefix(source, remoteScheme):
		return DialRemote(ctx, strings.TrimPrefix(source, remoteScheme), l.dialOpts...)
	case strings.HasPrefix(source, builtinScheme):
		name := strings.TrimPrefix(source, builtinScheme)
		l.mu.RLock()
		factory, ok := l.builtins[name]
		l.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("unknown builtin agent %q", name)
		}
		return factory(), nil
	default:
		path := source
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.dir, path)
		}
		return LoadScript(path)
	}
}
