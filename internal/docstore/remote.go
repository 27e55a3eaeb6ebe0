package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
)

const (
	// pongWait bounds how long a subscription may stay silent. Servers ping
	// more often than this.
	pongWait = 75 * time.Second

	defaultMaxBackoff = 30 * time.Second
)

type RemoteConfig struct {
	// BaseURL is the document server root, e.g. http://127.0.0.1:8765.
	BaseURL    string
	Collection string

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Logger     *slog.Logger

	// MaxBackoff caps the delay between reconnect attempts.
	MaxBackoff time.Duration
}

// Remote is a Collection served by a document server (`shoplist serve`).
// Writes go over HTTP; subscriptions are websocket streams that reconnect on
// their own after a failure.
type Remote struct {
	base       *url.URL
	collection string
	http       *http.Client
	dialer     *websocket.Dialer
	log        *slog.Logger
	maxBackoff time.Duration
}

func NewRemote(cfg RemoteConfig) (*Remote, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("docstore: missing remote url")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("docstore: parse remote url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("docstore: unsupported remote scheme %q", u.Scheme)
	}
	if !ValidName(cfg.Collection) {
		return nil, fmt.Errorf("%w: collection %q", ErrInvalidField, cfg.Collection)
	}
	r := &Remote{
		base:       u,
		collection: cfg.Collection,
		http:       cfg.HTTPClient,
		dialer:     cfg.Dialer,
		log:        cfg.Logger,
		maxBackoff: cfg.MaxBackoff,
	}
	if r.http == nil {
		r.http = http.DefaultClient
	}
	if r.dialer == nil {
		r.dialer = websocket.DefaultDialer
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.maxBackoff <= 0 {
		r.maxBackoff = defaultMaxBackoff
	}
	return r, nil
}

func (r *Remote) Add(ctx context.Context, fields Fields) (string, error) {
	if err := validateFields(fields); err != nil {
		return "", err
	}
	var out AddResult
	if err := r.do(ctx, http.MethodPost, CollectionPath(r.collection), fields, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("docstore: server returned empty id")
	}
	return out.ID, nil
}

func (r *Remote) Update(ctx context.Context, id string, fields Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	return r.do(ctx, http.MethodPatch, DocumentPath(r.collection, id), fields, nil)
}

func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, DocumentPath(r.collection, id), nil, nil)
}

func (r *Remote) Set(ctx context.Context, id string, fields Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}
	return r.do(ctx, http.MethodPut, DocumentPath(r.collection, id), fields, nil)
}

func (r *Remote) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	u := *r.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb ErrorBody
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		_ = json.Unmarshal(b, &eb)
		return &StatusError{Code: resp.StatusCode, Message: eb.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *Remote) wsURL(orderBy string) string {
	u := *r.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + SubscribePath(r.collection)
	u.RawQuery = url.Values{"orderBy": {orderBy}}.Encode()
	return u.String()
}

func (r *Remote) dial(ctx context.Context, orderBy string) (*websocket.Conn, error) {
	conn, resp, err := r.dialer.DialContext(ctx, r.wsURL(orderBy), nil)
	if err != nil {
		if resp != nil {
			return nil, &StatusError{Code: resp.StatusCode, Message: err.Error()}
		}
		return nil, err
	}
	return conn, nil
}

// Subscribe dials once synchronously so a wrong URL fails fast; later
// failures are reported on Updates() and retried with backoff.
func (r *Remote) Subscribe(ctx context.Context, orderBy string) (Subscription, error) {
	if !ValidName(orderBy) {
		return nil, fmt.Errorf("%w: order by %q", ErrInvalidField, orderBy)
	}
	conn, err := r.dial(ctx, orderBy)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &remoteSub{
		r:       r,
		orderBy: orderBy,
		q:       newUpdateQueue(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, conn)
	return s, nil
}

type remoteSub struct {
	r       *Remote
	orderBy string
	q       updateQueue

	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func (s *remoteSub) Updates() <-chan Update { return s.q.ch }

func (s *remoteSub) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

func (s *remoteSub) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	defer close(s.q.ch)

	log := s.r.log.With("collection", s.r.collection, "orderBy", s.orderBy)
	for {
		err := s.read(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("subscription lost", "err", err)
		s.q.offer(Update{Err: fmt.Errorf("subscription lost: %w", err)})

		conn = s.reconnect(ctx, log)
		if conn == nil {
			return
		}
		log.Info("subscription restored")
	}
}

func (s *remoteSub) reconnect(ctx context.Context, log *slog.Logger) *websocket.Conn {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = s.r.maxBackoff
	for {
		conn, err := backoff.Retry(ctx,
			func() (*websocket.Conn, error) { return s.r.dial(ctx, s.orderBy) },
			backoff.WithBackOff(b),
			backoff.WithNotify(func(err error, next time.Duration) {
				log.Debug("reconnect failed", "err", err, "retryIn", next)
			}),
		)
		if err == nil {
			return conn
		}
		if ctx.Err() != nil {
			return nil
		}
		s.q.offer(Update{Err: fmt.Errorf("reconnect: %w", err)})
	}
}

// read pumps frames from conn until it fails or ctx ends.
func (s *remoteSub) read(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			s.q.offer(Update{Err: fmt.Errorf("decode frame: %w", err)})
			continue
		}
		switch f.Type {
		case FrameSnapshot:
			docs := f.Docs
			if docs == nil {
				docs = []Document{}
			}
			s.q.offer(Update{Snapshot: Snapshot{Docs: docs, At: f.At}})
		case FrameError:
			s.q.offer(Update{Err: errors.New(f.Error)})
		}
	}
}
