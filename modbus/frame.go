package modbus

import "encoding/binary"

// FunctionCode identifies the operation carried by a frame. This core only
// speaks the two read operations; anything else parses as Generic.
type FunctionCode byte

const (
	FuncReadHoldingRegisters FunctionCode = 0x03
	FuncReadInputRegisters   FunctionCode = 0x04
)

const (
	errorFlag = 0x80

	// headerPrefixLen is the size of the transaction-id, protocol-id and
	// length fields that precede the byte count carried in length itself.
	headerPrefixLen = 6
	maxFrameLen     = 260

	maxQuantity = 0x7d
)

// Kind tags the variant a parsed Frame holds. A tagged struct replaces the
// polymorphic frame hierarchy of the historical implementation; callers
// switch on Kind instead of downcasting.
type Kind int

const (
	KindError Kind = iota
	KindReadHoldingResponse
	KindReadInputResponse
	KindRequest
	KindGeneric
)

// Frame is a parsed request or response. Which fields are meaningful depends
// on Kind:
//
//   - KindError: Unit, TransactionID, FunctionCode (error bit masked off), Exception
//   - KindReadHoldingResponse / KindReadInputResponse: Unit, TransactionID, FunctionCode, Payload (byte-count stripped)
//   - KindRequest: Unit, TransactionID, FunctionCode, Address, Quantity (used only by tests)
//   - KindGeneric: Unit, TransactionID, FunctionCode, Payload (raw bytes after the function code)
type Frame struct {
	Kind          Kind
	Unit          byte
	TransactionID uint16
	FunctionCode  FunctionCode
	Exception     Exception
	Payload       []byte
	Address       uint16
	Quantity      uint16
}

// EncodeReadHolding builds a ReadHoldingRegisters request frame.
func EncodeReadHolding(tx uint16, unit byte, addr, qty uint16) ([]byte, error) {
	return encodeRead(tx, unit, FuncReadHoldingRegisters, addr, qty)
}

// EncodeReadInput builds a ReadInputRegisters request frame.
func EncodeReadInput(tx uint16, unit byte, addr, qty uint16) ([]byte, error) {
	return encodeRead(tx, unit, FuncReadInputRegisters, addr, qty)
}

func encodeRead(tx uint16, unit byte, fc FunctionCode, addr, qty uint16) ([]byte, error) {
	if qty < 1 || qty > maxQuantity {
		return nil, ErrBadArgument
	}
	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[0:2], tx)
	// protocol id stays zero
	binary.BigEndian.PutUint16(buf[4:6], 6) // unit + func code + addr + qty
	buf[6] = unit
	buf[7] = byte(fc)
	binary.BigEndian.PutUint16(buf[8:10], addr)
	binary.BigEndian.PutUint16(buf[10:12], qty)
	return buf, nil
}

// MissingBytes reports how many more bytes buf needs before it holds a
// complete frame, or 0 if it already does. buf must be at least 6 bytes long.
func MissingBytes(buf []byte) (int, error) {
	if len(buf) < headerPrefixLen {
		return 0, ErrBadHeader
	}
	protocolID := binary.BigEndian.Uint16(buf[2:4])
	if protocolID != 0 {
		return 0, ErrBadHeader
	}
	length := binary.BigEndian.Uint16(buf[4:6])
	total := headerPrefixLen + int(length)
	if total > maxFrameLen {
		return 0, ErrBadHeader
	}
	missing := total - len(buf)
	if missing < 0 {
		missing = 0
	}
	return missing, nil
}

// Parse decodes a complete frame. Callers must first ensure MissingBytes(buf)
// == 0.
func Parse(buf []byte) (Frame, error) {
	missing, err := MissingBytes(buf)
	if err != nil {
		return Frame{}, err
	}
	if missing != 0 {
		return Frame{}, ErrBadFrame
	}
	length := binary.BigEndian.Uint16(buf[4:6])
	total := headerPrefixLen + int(length)
	buf = buf[:total]

	tx := binary.BigEndian.Uint16(buf[0:2])
	unit := buf[6]
	fc := buf[7]
	rest := buf[8:]

	switch {
	case fc&errorFlag != 0:
		if len(rest) != 1 {
			return Frame{}, ErrCorrupt
		}
		return Frame{
			Kind:          KindError,
			Unit:          unit,
			TransactionID: tx,
			FunctionCode:  FunctionCode(fc &^ errorFlag),
			Exception:     Exception(rest[0]),
		}, nil

	// A length-6 read frame whose quantity lies outside [1, maxQuantity] is
	// not a request; it falls through to the response checks below.
	case isReadFunc(fc) && length == 6 && len(rest) == 4 &&
		binary.BigEndian.Uint16(rest[2:4]) >= 1 && binary.BigEndian.Uint16(rest[2:4]) <= maxQuantity:
		return Frame{
			Kind:          KindRequest,
			Unit:          unit,
			TransactionID: tx,
			FunctionCode:  FunctionCode(fc),
			Address:       binary.BigEndian.Uint16(rest[0:2]),
			Quantity:      binary.BigEndian.Uint16(rest[2:4]),
		}, nil

	case isReadFunc(fc):
		if len(rest) < 1 {
			return Frame{}, ErrCorrupt
		}
		byteCount := int(rest[0])
		if int(length) != byteCount+3 || byteCount%2 != 0 {
			return Frame{}, ErrCorrupt
		}
		if len(rest) != 1+byteCount {
			return Frame{}, ErrCorrupt
		}
		kind := KindReadHoldingResponse
		if FunctionCode(fc) == FuncReadInputRegisters {
			kind = KindReadInputResponse
		}
		return Frame{
			Kind:          kind,
			Unit:          unit,
			TransactionID: tx,
			FunctionCode:  FunctionCode(fc),
			Payload:       rest[1:],
		}, nil

	default:
		return Frame{
			Kind:          KindGeneric,
			Unit:          unit,
			TransactionID: tx,
			FunctionCode:  FunctionCode(fc),
			Payload:       rest,
		}, nil
	}
}

func isReadFunc(fc byte) bool {
	return FunctionCode(fc) == FuncReadHoldingRegisters || FunctionCode(fc) == FuncReadInputRegisters
}
