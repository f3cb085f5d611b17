package encoding

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
)

// MaxEncodedSize предел длины закодированного снимка, который принимает модель
const MaxEncodedSize = 20 * 1024 * 1024

// chunkSize кратен 3, поэтому внутри потока не появляется выравнивание
const chunkSize = 48 * 1024

var (
	ErrEmptyInput = errors.New("image payload is empty")
	ErrTooLarge   = errors.New("encoded image exceeds size limit")
	ErrMalformed  = errors.New("encoded image failed validation")
)

// EncodedLen длина base64 для n байт
func EncodedLen(n int) int {
	return base64.StdEncoding.EncodedLen(n)
}

// Encode кодирует байты в base64 частями фиксированного размера.
// Размер результата проверяется до начала работы, сам результат после.
func Encode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	size := EncodedLen(len(data))
	if size > MaxEncodedSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, MaxEncodedSize)
	}

	var buf bytes.Buffer
	buf.Grow(size)
	encoder := base64.NewEncoder(base64.StdEncoding, &buf)
	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		if _, err := encoder.Write(data[start:end]); err != nil {
			return "", fmt.Errorf("encode chunk: %w", err)
		}
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalise base64 encoding: %w", err)
	}

	return checked(buf.String())
}

// checked пропускает дальше только строку, прошедшую Validate
func checked(encoded string) (string, error) {
	if !Validate(encoded) {
		return "", fmt.Errorf("%w: %d chars", ErrMalformed, len(encoded))
	}
	return encoded, nil
}

// Validate проверяет алфавит, кратность длины четырём и то, что
// '=' встречается только в хвосте длиной не больше двух символов.
func Validate(s string) bool {
	if s == "" || len(s)%4 != 0 {
		return false
	}

	padding := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '=' {
			padding++
			continue
		}
		if padding > 0 || !isAlphabet(c) {
			return false
		}
	}

	return padding <= 2
}

func isAlphabet(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+' || c == '/':
		return true
	}
	return false
}
