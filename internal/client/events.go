// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"context"
	"log/slog"
	"sync"
)

// AuthStateListener receives auth-state changes. session is nil after sign-out.
type AuthStateListener func(event AuthEvent, session *Session)

type authMessage struct {
	event   AuthEvent
	session *Session
}

// subscriber owns an unbounded queue drained by a single goroutine, so a slow
// listener delays only its own events and never drops one.
type subscriber struct {
	listener AuthStateListener

	mu     sync.Mutex
	queue  []authMessage
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func (sub *subscriber) push(message authMessage) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, message)
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) run() {
	for {
		select {
		case <-sub.done:
			return
		case <-sub.wake:
		}

		for {
			sub.mu.Lock()
			if sub.closed || len(sub.queue) == 0 {
				sub.mu.Unlock()
				break
			}
			message := sub.queue[0]
			sub.queue = sub.queue[1:]
			sub.mu.Unlock()

			sub.listener(message.event, message.session)
		}
	}
}

func (sub *subscriber) stop() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	sub.queue = nil
	close(sub.done)
}

// Subscription is the handle returned by [Client.OnAuthStateChange].
type Subscription struct {
	client *Client
	id     int
}

// Unsubscribe stops delivery. Events already being delivered finish; queued
// ones are dropped. Safe to call more than once.
func (subscription *Subscription) Unsubscribe() {
	client := subscription.client

	client.subscribersMu.Lock()
	sub, ok := client.subscribers[subscription.id]
	delete(client.subscribers, subscription.id)
	client.subscribersMu.Unlock()

	if ok {
		sub.stop()
	}
}

/*
OnAuthStateChange registers listener for auth-state changes.

Description: The first event delivered is always INITIAL_SESSION carrying the
persisted session (nil when signed out). Later events follow in the order the
client emitted them.
*/
func (client *Client) OnAuthStateChange(listener AuthStateListener) *Subscription {
	sub := &subscriber{
		listener: listener,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	client.subscribersMu.Lock()
	id := client.nextID
	client.nextID++
	client.subscribers[id] = sub

	initial, err := client.loadSession(context.Background())
	if err != nil {
		client.logger.Warn("auth_initial_session_unreadable", slog.Any("error", err))
	}
	sub.push(authMessage{event: EventInitialSession, session: initial})
	client.subscribersMu.Unlock()

	go sub.run()

	return &Subscription{client: client, id: id}
}

// emit queues event for every current subscriber.
func (client *Client) emit(event AuthEvent, session *Session) {
	client.subscribersMu.Lock()
	defer client.subscribersMu.Unlock()

	client.logger.Debug("auth_state_changed",
		slog.String("event", string(event)),
		slog.Int("subscribers", len(client.subscribers)),
	)

	for _, sub := range client.subscribers {
		sub.push(authMessage{event: event, session: session})
	}
}
