package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"clipdeck/internal/config"
)

const userAgent = "clipdeck-notify/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds the notifiers enabled in cfg. console receives terminal
// notices when notifications.console is set; pass nil to suppress them.
func NewService(cfg *config.Config, console io.Writer) Service {
	var services []Service
	if cfg.Notifications.Console && console != nil {
		services = append(services, NewConsole(console))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		services = append(services, &ntfyService{
			endpoint: topic,
			client:   &http.Client{Timeout: timeout},
		})
	}
	switch len(services) {
	case 0:
		return noopService{}
	case 1:
		return services[0]
	default:
		return Multi(services...)
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// Publish posts remote-worthy events to ntfy. Terminal-only events are
// ignored.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok || !msg.remote {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Console prints notices to a terminal or log stream.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewConsole writes notices to w, colouring them when w is a terminal.
func NewConsole(w io.Writer) *Console {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{w: w, color: color}
}

// Publish prints every known event.
func (c *Console) Publish(_ context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	marker, code := "•", "36"
	switch msg.severity {
	case SeverityWarning:
		marker, code = "!", "33"
	case SeverityError:
		marker, code = "✗", "31"
	}
	if c.color {
		marker = "\x1b[" + code + "m" + marker + "\x1b[0m"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", marker, msg.body)
	return err
}

type multiService []Service

// Multi fans a notice out to every service and joins their errors.
func Multi(services ...Service) Service {
	return multiService(services)
}

func (m multiService) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, svc := range m {
		if svc == nil {
			continue
		}
		if err := svc.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

// Noop returns a service that drops every notice.
func Noop() Service { return noopService{} }
