package shroud

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for interceptor events.
var (
	SignalInterceptorCreated = capitan.NewSignal("shroud.interceptor.created", "Interceptor instantiated")
	SignalWriteStart         = capitan.NewSignal("shroud.write.start", "Encrypt-on-write beginning")
	SignalWriteComplete      = capitan.NewSignal("shroud.write.complete", "Encrypt-on-write finished")
	SignalReadStart          = capitan.NewSignal("shroud.read.start", "Decrypt-on-read beginning")
	SignalReadComplete       = capitan.NewSignal("shroud.read.complete", "Decrypt-on-read finished")
)

// Keys for typed event data.
var (
	KeyTypeName        = capitan.NewStringKey("type_name")
	KeyCipherAlgorithm = capitan.NewStringKey("cipher_algorithm")
	KeyEnabled         = capitan.NewStringKey("enabled")
	KeyDuration        = capitan.NewDurationKey("duration")
	KeyError           = capitan.NewErrorKey("error")
	KeyObjectCount     = capitan.NewIntKey("object_count")
	KeyEncryptedCount  = capitan.NewIntKey("encrypted_count")
	KeyDecryptedCount  = capitan.NewIntKey("decrypted_count")
	KeySkippedCount    = capitan.NewIntKey("skipped_count")
)

// emitInterceptorCreated emits an event when an interceptor is created.
func emitInterceptorCreated(ctx context.Context, enabled bool, cipherAlgorithm string) {
	state := "false"
	if enabled {
		state = "true"
	}
	capitan.Emit(ctx, SignalInterceptorCreated,
		KeyEnabled.Field(state),
		KeyCipherAlgorithm.Field(cipherAlgorithm),
	)
}

// emitWriteStart emits an event when a write interception begins.
func emitWriteStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalWriteStart,
		KeyTypeName.Field(typeName),
	)
}

// emitWriteComplete emits an event when a write interception finishes.
// skipped counts values left alone because they were already marked.
func emitWriteComplete(ctx context.Context, typeName string, duration time.Duration, objects, encrypted, skipped int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyObjectCount.Field(objects),
		KeyEncryptedCount.Field(encrypted),
		KeySkippedCount.Field(skipped),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalWriteComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalWriteComplete, fields...)
	}
}

// emitReadStart emits an event when a read interception begins.
func emitReadStart(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalReadStart,
		KeyTypeName.Field(typeName),
	)
}

// emitReadComplete emits an event when a read interception finishes.
// skipped counts unmarked values passed through as plaintext.
func emitReadComplete(ctx context.Context, typeName string, duration time.Duration, objects, decrypted, skipped int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyObjectCount.Field(objects),
		KeyDecryptedCount.Field(decrypted),
		KeySkippedCount.Field(skipped),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalReadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalReadComplete, fields...)
	}
}
