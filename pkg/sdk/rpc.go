// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package sdk

import (
	"fmt"
	"net/rpc"

	"github.com/parley-chat/parley/pkg/hook"
)

// Conn is the host-side view of a running plugin process.
type Conn interface {
	// Notify dispatches a notification hook.
	Notify(hook string, args []string) error

	// Transform dispatches a transform hook. replaced reports whether
	// the plugin produced a replacement message.
	Transform(hook string, args []string, message string) (replacement string, replaced bool, err error)
}

// NotifyArgs is the wire form of a notification dispatch.
type NotifyArgs struct {
	Hook string
	Args []string
}

// NotifyReply is empty; notifications return nothing.
type NotifyReply struct{}

// TransformArgs is the wire form of a transform dispatch. Message
// rides separately from the context args.
type TransformArgs struct {
	Hook    string
	Args    []string
	Message string
}

// TransformReply carries an optional replacement. Replaced false
// means the host keeps its current message, so plugins can still
// replace with the empty string.
type TransformReply struct {
	Message  string
	Replaced bool
}

// HookClient forwards dispatches to the plugin process.
type HookClient struct {
	client *rpc.Client
}

// Compile-time interface check.
var _ Conn = (*HookClient)(nil)

// Notify implements Conn.
func (c *HookClient) Notify(hook string, args []string) error {
	var reply NotifyReply
	return c.client.Call("Plugin.Notify", NotifyArgs{Hook: hook, Args: args}, &reply)
}

// Transform implements Conn.
func (c *HookClient) Transform(hook string, args []string, message string) (string, bool, error) {
	var reply TransformReply
	err := c.client.Call("Plugin.Transform", TransformArgs{Hook: hook, Args: args, Message: message}, &reply)
	if err != nil {
		return "", false, err
	}
	return reply.Message, reply.Replaced, nil
}

// HookServer answers dispatches inside the plugin process. Unknown
// hooks and nil hook fields are no-ops, which keeps old plugins
// working when the host learns new hooks.
type HookServer struct {
	Impl *Hooks
}

// checkArity rejects dispatches with fewer context args than the hook
// table requires, before any field indexes into them.
func checkArity(name string, args []string) error {
	spec, ok := hook.Lookup(hook.Hook(name))
	if !ok {
		return nil
	}
	if len(args) < spec.NumArgs {
		return fmt.Errorf("sdk: hook %s needs %d args, got %d", name, spec.NumArgs, len(args))
	}
	return nil
}

// Notify implements the net/rpc server side of Conn.Notify.
func (s *HookServer) Notify(args NotifyArgs, _ *NotifyReply) error {
	if s.Impl == nil {
		return nil
	}
	if err := checkArity(args.Hook, args.Args); err != nil {
		return err
	}

	switch hook.Hook(args.Hook) {
	case hook.Init:
		if s.Impl.Init != nil {
			s.Impl.Init(args.Args[0], args.Args[1], args.Args[2])
		}
	case hook.OnStart:
		if s.Impl.OnStart != nil {
			s.Impl.OnStart()
		}
	case hook.OnConnect:
		if s.Impl.OnConnect != nil {
			s.Impl.OnConnect(args.Args[0], args.Args[1])
		}
	case hook.OnDisconnect:
		if s.Impl.OnDisconnect != nil {
			s.Impl.OnDisconnect(args.Args[0], args.Args[1])
		}
	case hook.OnShutdown:
		if s.Impl.OnShutdown != nil {
			s.Impl.OnShutdown()
		}
	}
	return nil
}

// Transform implements the net/rpc server side of Conn.Transform.
func (s *HookServer) Transform(args TransformArgs, reply *TransformReply) error {
	if s.Impl == nil {
		return nil
	}
	if err := checkArity(args.Hook, args.Args); err != nil {
		return err
	}

	var out *string
	switch hook.Hook(args.Hook) {
	case hook.BeforeMessageDisplayed:
		if s.Impl.BeforeMessageDisplayed != nil {
			out = s.Impl.BeforeMessageDisplayed(args.Message)
		}
	case hook.OnMessageReceived:
		if s.Impl.OnMessageReceived != nil {
			out = s.Impl.OnMessageReceived(args.Args[0], args.Message)
		}
	case hook.OnPrivateMessageReceived:
		if s.Impl.OnPrivateMessageReceived != nil {
			out = s.Impl.OnPrivateMessageReceived(args.Args[0], args.Args[1], args.Message)
		}
	case hook.OnRoomMessageReceived:
		if s.Impl.OnRoomMessageReceived != nil {
			out = s.Impl.OnRoomMessageReceived(args.Args[0], args.Args[1], args.Message)
		}
	case hook.OnMessageSend:
		if s.Impl.OnMessageSend != nil {
			out = s.Impl.OnMessageSend(args.Args[0], args.Message)
		}
	case hook.OnPrivateMessageSend:
		if s.Impl.OnPrivateMessageSend != nil {
			out = s.Impl.OnPrivateMessageSend(args.Args[0], args.Args[1], args.Message)
		}
	case hook.OnRoomMessageSend:
		if s.Impl.OnRoomMessageSend != nil {
			out = s.Impl.OnRoomMessageSend(args.Args[0], args.Message)
		}
	}

	if out != nil {
		reply.Message = *out
		reply.Replaced = true
	}
	return nil
}
