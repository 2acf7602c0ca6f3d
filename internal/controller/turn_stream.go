package controller

import (
	"bufio"
	"time"

	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/serverutils"
	"soulscript-chat-be/internal/service"
	"soulscript-chat-be/pkg/sse"

	"github.com/gofiber/fiber/v2"
)

const keepAliveInterval = 15 * time.Second

// streamTurn relays a running turn as Server-Sent Events. Token events carry
// the reply as it is generated; the stream ends with one blocked, done or
// error event.
func streamTurn(ctx *fiber.Ctx, turn *service.Turn) error {
	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("Transfer-Encoding", "chunked")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		relayTurn(w, turn, keepAliveInterval)
	})

	return nil
}

// relayTurn writes turn events to w until the terminal one. A failed write
// means the client left: the turn is abandoned and finishes on its own.
func relayTurn(w *bufio.Writer, turn *service.Turn, keepAlive time.Duration) {
	defer turn.Abandon()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-turn.Events:
			if !ok {
				return
			}
			if err := writeTurnEvent(w, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.SendKeepAlive(w); err != nil {
				return
			}
		}
	}
}

func writeTurnEvent(w *bufio.Writer, ev service.TurnEvent) error {
	switch ev.Type {
	case service.TurnEventToken:
		return sse.Send(w, sse.Event{Event: ev.Type, Data: dto.TokenResponse{Content: ev.Token}})
	case service.TurnEventBlocked, service.TurnEventDone:
		return sse.Send(w, sse.Event{Event: ev.Type, Data: ev.Result})
	case service.TurnEventError:
		return sse.Send(w, sse.Event{Event: ev.Type, Data: turnError(ev.Err)})
	}
	return nil
}

func turnError(err error) dto.TurnErrorResponse {
	_, body := serverutils.MapError(err)
	code := body.ErrorCode
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return dto.TurnErrorResponse{ErrorCode: code, Message: body.Message, Retryable: body.Retryable}
}
