package display

import (
	"context"
	"sort"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/gousb"
)

// Push 2 USB identifiers
const (
	Push2VID gousb.ID = 0x2982
	Push2PID gousb.ID = 0x1967
)

// USBDialer opens the display interface of a USB device by vendor/product id
type USBDialer struct {
	VID gousb.ID
	PID gousb.ID
}

// NewPush2Dialer targets the Ableton Push 2
func NewPush2Dialer() *USBDialer {
	return &USBDialer{VID: Push2VID, PID: Push2PID}
}

func (d *USBDialer) Dial() (Conn, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(d.VID, d.PID)
	if err != nil {
		ctx.Close()
		return nil, fault.Wrap(err, fmsg.With("open usb device"), ftag.With(ftag.Internal))
	}
	if dev == nil {
		ctx.Close()
		return nil, fault.Wrap(ErrNotFound, ftag.With(ftag.NotFound))
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fault.Wrap(err, fmsg.With("enable kernel driver auto-detach"))
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fault.Wrap(err, fmsg.With("claim display interface"))
	}

	epNum, ok := firstOutEndpoint(intf.Setting)
	if !ok {
		done()
		dev.Close()
		ctx.Close()
		return nil, fault.Wrap(fault.New("no bulk out endpoint"), fmsg.With("find display endpoint"))
	}

	out, err := intf.OutEndpoint(epNum)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fault.Wrap(err, fmsg.With("open display endpoint"))
	}

	return &usbConn{ctx: ctx, dev: dev, done: done, out: out}, nil
}

// firstOutEndpoint picks the lowest-numbered bulk OUT endpoint
func firstOutEndpoint(s gousb.InterfaceSetting) (int, bool) {
	var nums []int
	for _, ep := range s.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			nums = append(nums, ep.Number)
		}
	}
	if len(nums) == 0 {
		return 0, false
	}
	sort.Ints(nums)
	return nums[0], true
}

type usbConn struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	done func()
	out  *gousb.OutEndpoint
}

func (c *usbConn) Write(ctx context.Context, b []byte) (int, error) {
	return c.out.WriteContext(ctx, b)
}

func (c *usbConn) Close() error {
	c.done()
	err := c.dev.Close()
	c.ctx.Close()
	return err
}
