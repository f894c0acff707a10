package repository

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyReserved - batchID уже занимает слот в окне. Повторно занять его можно только после Release.
var ErrAlreadyReserved = errors.New("batch already holds a quota slot")

// QuotaRepository - счётчик бесплатных пакетов в скользящем окне и учёт использованных платежей.
// Reserve и ClaimCharge атомарны.
type QuotaRepository interface {
	// Reserve занимает слот для batchID, если в окне меньше limit записей.
	// Если batchID уже в окне - ErrAlreadyReserved.
	Reserve(ctx context.Context, key, batchID string, limit int, window time.Duration) (bool, error)

	// Release освобождает слот (пакет отменён или упал)
	Release(ctx context.Context, key, batchID string) error

	// Usage возвращает число занятых слотов в окне
	Usage(ctx context.Context, key string, window time.Duration) (int, error)

	// ClaimCharge закрепляет оплаченный платёж за batchID; false - платёж уже использован
	ClaimCharge(ctx context.Context, chargeID, batchID string) (bool, error)

	// ReleaseCharge снимает закрепление, только если оно принадлежит batchID
	ReleaseCharge(ctx context.Context, chargeID, batchID string) error
}
