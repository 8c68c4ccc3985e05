package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/opensymposium/opensymposium/pkg/protocol"
	"github.com/opensymposium/opensymposium/pkg/table"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// handleSession serves one connection: a decode loop routing CREATE and
// UPDATE requests to the table. A decode or write failure tears down this
// session only; the listener and the other sessions keep running.
func (s *Server) handleSession(ctx context.Context, connID string, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	remoteAddr := conn.RemoteAddr().String()
	ctx = s.tel.WithContext(ctx)
	ctx = telemetry.WithSessionContext(ctx, connID, remoteAddr)

	logger := s.logger.WithConnectionID(connID)
	logger.WithField("remote_addr", remoteAddr).Info("Session opened")

	enc := protocol.NewEncoder(conn)
	dec := protocol.NewDecoder(conn)

	reason := "client disconnected"
	var sessionErr error

	for {
		msg, err := dec.Decode()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				reason = "decode failed"
				sessionErr = err
				logger.WithError(err).Warn("Failed to decode message")
			}
			if ctx.Err() != nil {
				reason = "server shutting down"
			}
			break
		}

		s.tel.Metrics.RecordSessionMessage(string(msg.Type))

		var writeErr error
		switch msg.Type {
		case protocol.MessageTypeCreate:
			writeErr = s.handleCreate(ctx, logger, enc)
		case protocol.MessageTypeUpdate:
			writeErr = s.handleUpdate(ctx, logger, enc, msg)
		default:
			logger.WithField("type", string(msg.Type)).Warn("Ignoring unexpected message type")
		}
		if writeErr != nil {
			reason = "write failed"
			sessionErr = writeErr
			logger.WithError(writeErr).Warn("Failed to write response")
			break
		}
	}

	telemetry.EndSessionContext(ctx, connID, reason, sessionErr)
}

// handleCreate admits a philosopher and answers with CREATED, or with ERROR
// when the table is full. The returned error is a write failure only.
func (s *Server) handleCreate(ctx context.Context, logger *telemetry.Logger, enc *protocol.Encoder) error {
	snapshot, err := s.table.Admit(ctx)
	if err != nil {
		logger.WithError(err).Warn("Admission refused")
		return enc.EncodeError(&protocol.ErrorMessage{
			Code:    table.ErrorCode(err),
			Message: err.Error(),
		})
	}

	logger.WithPhilosopherID(snapshot.ID).Info("Philosopher admitted")
	return enc.EncodeCreated(&protocol.CreatedMessage{Philosopher: toWire(snapshot)})
}

// handleUpdate applies a state transition. Grants answer with UPDATED;
// unknown philosopher ids and fire-and-forget transitions produce nothing.
func (s *Server) handleUpdate(ctx context.Context, logger *telemetry.Logger, enc *protocol.Encoder, msg *protocol.Message) error {
	var update protocol.UpdateMessage
	if err := protocol.ParsePayload(msg.Data, &update); err != nil {
		logger.WithError(err).Warn("Dropping malformed update")
		return nil
	}
	if err := update.Validate(); err != nil {
		logger.WithError(err).Warn("Dropping invalid update")
		return nil
	}

	p := update.Philosopher
	snapshot, err := s.table.Transition(ctx, p.ID, table.State(p.State), p.StateTimer)
	if err != nil {
		if table.IsNotFound(err) {
			logger.WithPhilosopherID(p.ID).Warn("Dropping update for unknown philosopher")
			return nil
		}
		logger.WithPhilosopherID(p.ID).WithError(err).Warn("Transition failed")
		return nil
	}
	if snapshot == nil {
		return nil
	}

	return enc.EncodeUpdated(&protocol.UpdatedMessage{Philosopher: toWire(*snapshot)})
}

// toWire converts a table snapshot to its protocol form.
func toWire(snapshot table.Snapshot) protocol.Philosopher {
	return protocol.Philosopher{
		ID:             snapshot.ID,
		State:          string(snapshot.State),
		StateTimer:     snapshot.StateTimer,
		LeftChopstick:  snapshot.LeftChopstick,
		RightChopstick: snapshot.RightChopstick,
	}
}
