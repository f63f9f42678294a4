package party

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rbright/cakemic/internal/ipc"
)

// Handle serves IPC commands for the running party.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.respond("status")
	case ipc.CommandExtinguish:
		if req.Index == nil {
			return c.fail("extinguish requires a candle index")
		}
		changed, err := c.Extinguish(*req.Index)
		if err != nil {
			return c.fail(err.Error())
		}
		if !changed {
			return c.respond(fmt.Sprintf("candle %d already out", *req.Index+1))
		}
		return c.respond(fmt.Sprintf("candle %d extinguished", *req.Index+1))
	case ipc.CommandBlow:
		if !c.Blow() {
			return c.respond("no candles left to blow out")
		}
		return c.respond("blown")
	case ipc.CommandRelight:
		c.Relight()
		return c.respond("candles relit")
	case ipc.CommandMic:
		on, err := parseSwitch(req.Value, c.Snapshot().Mic)
		if err != nil {
			return c.fail(err.Error())
		}
		c.SetMic(on)
		if on {
			return c.respond("mic on")
		}
		return c.respond("mic off")
	case ipc.CommandCandles:
		n, err := strconv.Atoi(strings.TrimSpace(req.Value))
		if err != nil {
			return c.fail(fmt.Sprintf("invalid candle count %q", req.Value))
		}
		if err := c.SetTotal(n); err != nil {
			return c.fail(err.Error())
		}
		return c.respond(fmt.Sprintf("cake has %d candles", n))
	case ipc.CommandMessage:
		c.SetMessage(req.Value)
		return c.respond("message updated")
	case ipc.CommandDismiss:
		c.Dismiss()
		return c.respond("dismissed")
	case ipc.CommandFlower:
		if strings.TrimSpace(req.Value) == "reset" {
			c.ResetBouquet()
			return c.respond("bouquet reset")
		}
		flower, ok := c.AddFlower()
		if !ok {
			return c.respond("bouquet already complete")
		}
		return c.respond(fmt.Sprintf("%s: %s", flower.Kind, flower.Message))
	default:
		return c.fail(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (c *Controller) respond(message string) ipc.Response {
	resp := c.response()
	resp.OK = true
	resp.Message = message
	return resp
}

func (c *Controller) fail(message string) ipc.Response {
	resp := c.response()
	resp.Error = message
	return resp
}

func (c *Controller) response() ipc.Response {
	snap := c.Snapshot()
	return ipc.Response{
		State:        string(snap.State),
		Total:        snap.Total,
		Extinguished: snap.Extinguished,
		Complete:     snap.Complete,
		Listening:    snap.Listening,
		PartyID:      snap.PartyID,
	}
}

// parseSwitch reads on/off style values. An empty value toggles current.
func parseSwitch(raw string, current bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "toggle":
		return !current, nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid mic value %q (want on, off, or toggle)", raw)
	}
}
