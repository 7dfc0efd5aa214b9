// Package callsvc shows which calls get transactional treatment. Each method
// returns a snapshot of the transaction state it observed.
package callsvc

import (
	"context"

	"txprop/internal/core/tx"
	"txprop/pkg/logger"
)

// TxInfo is the transaction state observed inside a method.
type TxInfo struct {
	Active   bool
	ReadOnly bool
}

func observe(ctx context.Context, method string) TxInfo {
	info := TxInfo{Active: tx.IsActive(ctx), ReadOnly: tx.IsReadOnly(ctx)}
	logger.Info(ctx, "call "+method, "tx_active", info.Active, "tx_read_only", info.ReadOnly)
	return info
}

// BasicService has one transactional and one plain method.
type BasicService struct {
	boundary *tx.Interceptor
}

// NewBasicService creates a BasicService.
func NewBasicService(coord *tx.Coordinator) *BasicService {
	return &BasicService{
		boundary: tx.NewInterceptor(coord,
			tx.NewAttributeSource("BasicService").Method("Tx", tx.DefaultAttribute())),
	}
}

// Tx runs in a transaction.
func (s *BasicService) Tx(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "Tx", func(ctx context.Context) (TxInfo, error) {
		return observe(ctx, "tx"), nil
	})
}

// NonTx does not.
func (s *BasicService) NonTx(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "NonTx", func(ctx context.Context) (TxInfo, error) {
		return observe(ctx, "nonTx"), nil
	})
}

// LevelService is read-only by default; Write overrides it.
type LevelService struct {
	boundary *tx.Interceptor
}

// NewLevelService creates a LevelService.
func NewLevelService(coord *tx.Coordinator) *LevelService {
	source := tx.NewAttributeSource("LevelService").
		WithDefault(tx.Attribute{Definition: tx.DefaultDefinition().AsReadOnly()}).
		Method("Write", tx.DefaultAttribute())
	return &LevelService{boundary: tx.NewInterceptor(coord, source)}
}

// Write runs in a read-write transaction.
func (s *LevelService) Write(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "Write", func(ctx context.Context) (TxInfo, error) {
		return observe(ctx, "write"), nil
	})
}

// Read inherits the read-only default.
func (s *LevelService) Read(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "Read", func(ctx context.Context) (TxInfo, error) {
		return observe(ctx, "read"), nil
	})
}

// CallService declares only Internal as transactional. External calls
// internal directly, bypassing the boundary, so the work inside runs
// without a transaction.
type CallService struct {
	boundary *tx.Interceptor
}

// NewCallService creates a CallService.
func NewCallService(coord *tx.Coordinator) *CallService {
	return &CallService{
		boundary: tx.NewInterceptor(coord,
			tx.NewAttributeSource("CallService").Method("Internal", tx.DefaultAttribute())),
	}
}

// External observes the state, then calls internal on the same value.
func (s *CallService) External(ctx context.Context) (outer, inner TxInfo, err error) {
	err = s.boundary.Call(ctx, "External", func(ctx context.Context) error {
		outer = observe(ctx, "external")
		inner = s.internal(ctx)
		return nil
	})
	return outer, inner, err
}

// Internal goes through the boundary.
func (s *CallService) Internal(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "Internal", func(ctx context.Context) (TxInfo, error) {
		return s.internal(ctx), nil
	})
}

func (s *CallService) internal(ctx context.Context) TxInfo {
	return observe(ctx, "internal")
}

// InternalService holds the transactional method moved out of CallService.
type InternalService struct {
	boundary *tx.Interceptor
}

// NewInternalService creates an InternalService.
func NewInternalService(coord *tx.Coordinator) *InternalService {
	return &InternalService{
		boundary: tx.NewInterceptor(coord,
			tx.NewAttributeSource("InternalService").Method("Internal", tx.DefaultAttribute())),
	}
}

// Internal runs in a transaction.
func (s *InternalService) Internal(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "Internal", func(ctx context.Context) (TxInfo, error) {
		return observe(ctx, "internal"), nil
	})
}

// SplitCallService calls InternalService through its boundary, so the inner
// work is transactional.
type SplitCallService struct {
	internal *InternalService
}

// NewSplitCallService creates a SplitCallService.
func NewSplitCallService(internal *InternalService) *SplitCallService {
	return &SplitCallService{internal: internal}
}

// External observes the state, then calls the separate service.
func (s *SplitCallService) External(ctx context.Context) (outer, inner TxInfo, err error) {
	outer = observe(ctx, "external")
	inner, err = s.internal.Internal(ctx)
	return outer, inner, err
}

// InitService runs setup work twice: once from its constructor, before the
// boundary exists, and again from Ready once the service is wired. Only the
// second run is transactional, though both are declared so.
type InitService struct {
	boundary *tx.Interceptor

	// Constructed is the state observed by the constructor's setup call.
	Constructed TxInfo
}

// NewInitService creates an InitService, running setup on the way.
func NewInitService(ctx context.Context, coord *tx.Coordinator) *InitService {
	s := &InitService{}
	s.Constructed = s.setup(ctx, "init on construction")
	s.boundary = tx.NewInterceptor(coord,
		tx.NewAttributeSource("InitService").Method("Ready", tx.DefaultAttribute()))
	return s
}

// Ready runs setup through the boundary. Call it after wiring completes.
func (s *InitService) Ready(ctx context.Context) (TxInfo, error) {
	return tx.Execute(ctx, s.boundary, "Ready", func(ctx context.Context) (TxInfo, error) {
		return s.setup(ctx, "init when ready"), nil
	})
}

func (s *InitService) setup(ctx context.Context, stage string) TxInfo {
	return observe(ctx, stage)
}
