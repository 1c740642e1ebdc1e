// Package notifications delivers user-visible workflow notices via pluggable
// notifiers.
//
// Every notice is an Event plus a Payload. The console notifier prints the
// notice to the terminal the CLI runs in; the ntfy notifier publishes it to
// the topic configured in config.toml. NewService combines whichever are
// enabled and degrades to a no-op when none are. Failure notices always carry
// the short reason string from services.Reason so users can tell rejection
// causes apart.
package notifications
