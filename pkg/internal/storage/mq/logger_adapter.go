package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter 将 zerolog 适配为 watermill.LoggerAdapter.
// watermill 的 Info 日志较多，统一降一级输出.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewLoggerAdapter 基于 zerolog 创建 watermill 日志适配器.
func NewLoggerAdapter(l zerolog.Logger) watermill.LoggerAdapter {
	return &zerologAdapter{l: l.With().Str("component", "mq").Logger()}
}

func withFields(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}

	return ev
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	withFields(z.l.Error().Err(err), fields).Msg(msg)
}

func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	withFields(z.l.Trace(), fields).Msg(msg)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	withFields(z.l.Trace(), fields).Msg(msg)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	l := z.l.With()
	for k, v := range fields {
		l = l.Interface(k, v)
	}

	return &zerologAdapter{l: l.Logger()}
}
