// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

// CBOR major type headers grow with the value they carry
const (
	cborMaxInlineUint = 24
	cborMaxUint8      = 1 << 8
	cborMaxUint16     = 1 << 16
	cborMaxUint32     = 1 << 32
)

// CborIntegerSize returns the encoded size in bytes of an unsigned CBOR integer, which is also
// the size of the length prefix of a definite-length bytestring, array or map
func CborIntegerSize(value uint64) uint64 {
	switch {
	case value < cborMaxInlineUint:
		return 1
	case value < cborMaxUint8:
		return 2
	case value < cborMaxUint16:
		return 3
	case value < cborMaxUint32:
		return 5
	default:
		return 9
	}
}

// CborBytesSize returns the encoded size of a definite-length bytestring of the given length
func CborBytesSize(length uint64) uint64 {
	return CborIntegerSize(length) + length
}

// CborContainerSize returns the size of the header of a definite-length array or map
func CborContainerSize(length uint64) uint64 {
	return CborIntegerSize(length)
}
