package jvm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes in canonical mode so equal models have equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("jvm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a class file model to CBOR bytes.
func Marshal(cf *ClassFile) ([]byte, error) {
	return cborEncMode.Marshal(cf)
}

// Unmarshal deserializes a class file model from CBOR bytes.
func Unmarshal(data []byte) (*ClassFile, error) {
	var cf ClassFile
	if err := cbor.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("jvm: unmarshal class file: %w", err)
	}
	return &cf, nil
}
