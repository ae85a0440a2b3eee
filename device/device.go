// Package device implements the façade over a single metering unit: the
// hardware register map, the cached revision/serial/channel state, and the
// per-exchange request/response bookkeeping. It is built on top of the
// modbus package and knows nothing about sockets or scheduling.
package device

import (
	"context"
	"time"

	"github.com/oxalisiot/lm50client/modbus"
)

const (
	unitID = 1

	revisionAddr = 0x0578
	revisionQty  = 3

	serialAddr = 0x2710
	serialQty  = 2

	channelBaseAddr = 0x0080
	channelCount    = 50
	channelQty      = 2 * channelCount

	defaultTimeout = time.Second
)

// exchanger is the transport surface the façade needs. *modbus.Transport
// satisfies it; tests supply fakes.
type exchanger interface {
	Open(ctx context.Context, host, service string) error
	Close() error
	Exchange(req []byte, timeout time.Duration) ([]byte, error)
}

// Device is the façade for one LM-50TCP+-class unit. It is NOT safe for
// concurrent use: callers serialize access to a single Device with their own
// lock (see the daemon package), because recovery must close and reopen the
// connection from within what looks like a single logical call.
type Device struct {
	transport exchanger
	host      string
	service   string
	timeout   time.Duration

	nextTx uint16

	revision     string
	haveRevision bool

	serial     uint32
	haveSerial bool

	channels     [channelCount]uint32
	haveChannels bool

	lastUpdate time.Time
}

// New builds a Device bound to host:service, using tr as its transport.
func New(tr exchanger, host, service string) *Device {
	return &Device{
		transport: tr,
		host:      host,
		service:   service,
		timeout:   defaultTimeout,
	}
}

// Connect opens the underlying transport.
func (d *Device) Connect(ctx context.Context) error {
	return d.transport.Open(ctx, d.host, d.service)
}

// Disconnect closes the underlying transport.
func (d *Device) Disconnect() error {
	return d.transport.Close()
}

// ReadSteady reads the revision string and serial number and caches both.
// On any failure the caches are left untouched.
func (d *Device) ReadSteady() error {
	revPayload, err := d.exchangeReadHolding(revisionAddr, revisionQty)
	if err != nil {
		return err
	}
	serialPayload, err := d.exchangeReadHolding(serialAddr, serialQty)
	if err != nil {
		return err
	}
	serialWords, err := modbus.AsU32Array(serialPayload)
	if err != nil {
		return err
	}
	if len(serialWords) != 1 {
		return &modbus.ProtocolError{Kind: modbus.ProtocolTruncated}
	}

	d.revision = modbus.AsASCII(revPayload)
	d.haveRevision = true
	d.serial = serialWords[0]
	d.haveSerial = true
	return nil
}

// UpdateVolatile reads all 50 channel counters in a single exchange and
// updates the cache and last-update timestamp.
func (d *Device) UpdateVolatile() error {
	payload, err := d.exchangeReadInput(channelBaseAddr, channelQty)
	if err != nil {
		return err
	}
	values, err := modbus.AsU32Array(payload)
	if err != nil {
		return err
	}
	if len(values) != channelCount {
		return &modbus.ProtocolError{Kind: modbus.ProtocolTruncated}
	}

	copy(d.channels[:], values)
	d.haveChannels = true
	d.lastUpdate = time.Now()
	return nil
}

// Revision returns the cached revision string.
func (d *Device) Revision() (string, error) {
	if !d.haveRevision {
		return "", ErrNotYetRead
	}
	return d.revision, nil
}

// SerialNumber returns the cached serial number.
func (d *Device) SerialNumber() (uint32, error) {
	if !d.haveSerial {
		return 0, ErrNotYetRead
	}
	return d.serial, nil
}

// Channel returns the cached value of channel i, 0-indexed in [0, 50).
func (d *Device) Channel(i int) (uint32, error) {
	if i < 0 || i >= channelCount {
		return 0, ErrOutOfRange
	}
	if !d.haveChannels {
		return 0, ErrNotYetRead
	}
	return d.channels[i], nil
}

// LastUpdate returns the timestamp of the last successful UpdateVolatile, or
// the zero time if none has succeeded yet.
func (d *Device) LastUpdate() time.Time {
	return d.lastUpdate
}

func (d *Device) exchangeReadHolding(addr, qty uint16) ([]byte, error) {
	return d.exchange(modbus.FuncReadHoldingRegisters, addr, qty)
}

func (d *Device) exchangeReadInput(addr, qty uint16) ([]byte, error) {
	return d.exchange(modbus.FuncReadInputRegisters, addr, qty)
}

// exchange implements the per-exchange algorithm: allocate a transaction id,
// encode, exchange over the transport, and validate the response shape.
func (d *Device) exchange(fc modbus.FunctionCode, addr, qty uint16) ([]byte, error) {
	tx := d.nextTx
	d.nextTx++

	var (
		req []byte
		err error
	)
	switch fc {
	case modbus.FuncReadHoldingRegisters:
		req, err = modbus.EncodeReadHolding(tx, unitID, addr, qty)
	case modbus.FuncReadInputRegisters:
		req, err = modbus.EncodeReadInput(tx, unitID, addr, qty)
	}
	if err != nil {
		return nil, err
	}

	respBytes, err := d.transport.Exchange(req, d.timeout)
	if err != nil {
		return nil, err
	}

	frame, err := modbus.Parse(respBytes)
	if err != nil {
		return nil, err
	}

	if frame.Kind == modbus.KindError && frame.FunctionCode == fc {
		return nil, &modbus.ProtocolError{Kind: modbus.ProtocolException, Exception: frame.Exception}
	}
	wantKind := modbus.KindReadHoldingResponse
	if fc == modbus.FuncReadInputRegisters {
		wantKind = modbus.KindReadInputResponse
	}
	if frame.Kind != wantKind {
		return nil, &modbus.ProtocolError{Kind: modbus.ProtocolUnexpectedFrame}
	}
	if frame.TransactionID != tx {
		return nil, &modbus.ProtocolError{Kind: modbus.ProtocolDesync}
	}
	return frame.Payload, nil
}
