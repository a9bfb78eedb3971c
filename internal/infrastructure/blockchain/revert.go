package blockchain

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var revertHexPattern = regexp.MustCompile(`0x[0-9a-fA-F]{8,}`)

// RevertReason extracts a human-readable revert reason from an RPC error.
// It understands Error(string), Panic(uint256) and the custom errors in
// the token ABI, and falls back to the error text.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}

	if data, ok := extractRevertHexFromDataError(err); ok {
		if reason, ok := decodeRevertData(data); ok {
			return reason
		}
	}

	for _, candidate := range revertHexPattern.FindAllString(err.Error(), -1) {
		data, ok := parseHexBytes(candidate)
		if !ok {
			continue
		}
		if reason, ok := decodeRevertData(data); ok {
			return reason
		}
	}

	return err.Error()
}

func decodeRevertData(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason, true
	}
	for name, abiErr := range coffeeCoinABI.Errors {
		if !bytes.Equal(abiErr.ID[:4], data[:4]) {
			continue
		}
		values, err := abiErr.Unpack(data)
		if err != nil {
			return name, true
		}
		return fmt.Sprintf("%s%v", name, values), true
	}
	return "", false
}

func extractRevertHexFromDataError(err error) ([]byte, bool) {
	type rpcDataError interface {
		ErrorData() interface{}
	}
	var dataErr rpcDataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	return parseRevertBytesFromAny(dataErr.ErrorData())
}

func parseRevertBytesFromAny(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return parseHexBytes(v)
	case []byte:
		if len(v) == 0 {
			return nil, false
		}
		out := make([]byte, len(v))
		copy(out, v)
		return out, true
	case map[string]interface{}:
		if raw, ok := v["data"]; ok {
			return parseRevertBytesFromAny(raw)
		}
	}
	return nil, false
}

func parseHexBytes(raw string) ([]byte, bool) {
	value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if len(value) < 8 || len(value)%2 != 0 {
		return nil, false
	}
	data, err := hex.DecodeString(value)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
