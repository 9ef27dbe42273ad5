package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
)

// InboundMessage is one line on the pipe: raw text plus the sender identity
// already normalized by the channel connector that produced it.
type InboundMessage struct {
	Channel    string                 `json:"channel"`
	SenderID   string                 `json:"sender_id"`
	SenderName string                 `json:"sender_name,omitempty"`
	Content    string                 `json:"content"`
	AgentPeer  bool                   `json:"agent_peer,omitempty"`
	Auth       *security.AuthEvidence `json:"auth,omitempty"`
}

// OutboundMessage is the sanitized handoff for the routing collaborator.
type OutboundMessage struct {
	Channel  string          `json:"channel"`
	SenderID string          `json:"sender_id"`
	Text     string          `json:"text"`
	Trust    security.Trust  `json:"trust"`
	Flags    []security.Flag `json:"flags,omitempty"`
}

// maxLineBytes bounds a single pipe line. Oversized lines are consumed and
// dropped rather than buffered without limit.
const maxLineBytes = 4 << 20

// errLineTooLong marks a line over maxLineBytes.
var errLineTooLong = errors.New("line exceeds size limit")

// runPipe reads newline-delimited InboundMessage JSON from r and writes one
// OutboundMessage line per input to w. Malformed, oversized, and
// unknown-channel lines are logged and dropped; nothing is ever forwarded
// unsanitized, and no input line can stop the pipe. Only output write
// failures and reader errors terminate the loop.
func (g *Gateway) runPipe(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	enc := json.NewEncoder(w)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := readLimitedLine(reader)
		if errors.Is(err, errLineTooLong) {
			g.logger.Error("dropping oversized line", "limit_bytes", maxLineBytes)
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading input: %w", err)
		}

		if len(line) > 0 {
			if werr := g.forward(line, enc); werr != nil {
				return werr
			}
		}

		if errors.Is(err, io.EOF) {
			g.logger.Info("input closed, shutting down")
			return nil
		}
	}
}

// forward sanitizes one line and encodes the result onto the pipe.
func (g *Gateway) forward(line []byte, enc *json.Encoder) error {
	var in InboundMessage
	if err := json.Unmarshal(line, &in); err != nil {
		g.logger.Error("dropping malformed line", "err", err)
		return nil
	}

	out, err := g.handle(in)
	if err != nil {
		g.logger.Error("dropping message", "channel", in.Channel, "err", err)
		return nil
	}

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (g *Gateway) handle(in InboundMessage) (OutboundMessage, error) {
	sender := security.Identity{
		ID:          in.SenderID,
		DisplayName: in.SenderName,
		AgentPeer:   in.AgentPeer,
	}

	msg, err := g.Sanitize(in.Channel, in.Content, sender, in.Auth)
	if err != nil {
		return OutboundMessage{}, err
	}

	return OutboundMessage{
		Channel:  in.Channel,
		SenderID: in.SenderID,
		Text:     msg.Text,
		Trust:    msg.Trust,
		Flags:    msg.Flags,
	}, nil
}

// readLimitedLine returns the next line without its ending. A line over
// maxLineBytes is consumed through its newline and reported as
// errLineTooLong, keeping the reader aligned on line boundaries.
func readLimitedLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		line = append(line, frag...)
		switch {
		case err == nil:
			return bytes.TrimRight(line, "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(line) > maxLineBytes {
				return nil, discardLine(r)
			}
		case errors.Is(err, io.EOF):
			return bytes.TrimRight(line, "\r\n"), io.EOF
		default:
			return nil, err
		}
	}
}

// discardLine consumes input up to and including the next newline.
func discardLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return errLineTooLong
		case errors.Is(err, bufio.ErrBufferFull):
			// keep discarding
		default:
			return err
		}
	}
}
