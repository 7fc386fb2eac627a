package log

import (
	"bytes"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

type color struct {
	*zapcore.EncoderConfig
	zapcore.Encoder
}

func NewColor(cfg zapcore.EncoderConfig) (enc zapcore.Encoder) {
	return color{
		EncoderConfig: &cfg,
		Encoder:       zapcore.NewConsoleEncoder(cfg),
	}
}

// EncodeEntry unescapes the ANSI sequences the console encoder quotes, so
// coloured diff text logged as a field renders in the terminal.
func (c color) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (buf *buffer.Buffer, err error) {
	buff, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}

	bytesArr := bytes.ReplaceAll(buff.Bytes(), []byte("\\u001b"), []byte("\u001b"))
	buff.Reset()
	buff.AppendString(string(bytesArr))
	return buff, err
}

func (c color) Clone() zapcore.Encoder {
	return color{
		EncoderConfig: c.EncoderConfig,
		Encoder:       c.Encoder.Clone(),
	}
}
