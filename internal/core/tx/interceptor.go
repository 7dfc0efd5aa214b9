package tx

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"txprop/pkg/logger"
)

var tracer = otel.Tracer("txprop/tx")

// Attribute is the transactional declaration of one unit of work.
type Attribute struct {
	Definition Definition
	Rules      RollbackRules
}

// DefaultAttribute is REQUIRED, read-write, rolling back on every error.
func DefaultAttribute() Attribute {
	return Attribute{Definition: DefaultDefinition(), Rules: DefaultRollbackRules()}
}

// AttributeSource resolves the Attribute of each method of a wrapped type.
// A type-level default applies to methods without their own declaration.
type AttributeSource struct {
	typeName string
	def      *Attribute
	methods  map[string]Attribute
	plain    map[string]bool
}

// NewAttributeSource creates a source without a type-level default: only
// methods declared with Method are transactional.
func NewAttributeSource(typeName string) *AttributeSource {
	return &AttributeSource{
		typeName: typeName,
		methods:  make(map[string]Attribute),
		plain:    make(map[string]bool),
	}
}

// WithDefault sets the type-level attribute.
func (s *AttributeSource) WithDefault(attr Attribute) *AttributeSource {
	s.def = &attr
	return s
}

// Method declares the attribute of one method, overriding the default.
func (s *AttributeSource) Method(name string, attr Attribute) *AttributeSource {
	s.methods[name] = attr
	delete(s.plain, name)
	return s
}

// NonTransactional excludes a method from the type-level default.
func (s *AttributeSource) NonTransactional(name string) *AttributeSource {
	s.plain[name] = true
	delete(s.methods, name)
	return s
}

// Lookup returns the attribute of method and whether it is transactional.
func (s *AttributeSource) Lookup(method string) (Attribute, bool) {
	if s.plain[method] {
		return Attribute{}, false
	}
	attr, ok := s.methods[method]
	if !ok {
		if s.def == nil {
			return Attribute{}, false
		}
		attr = *s.def
	}
	if attr.Definition.Name == "" {
		attr.Definition.Name = s.typeName
		if method != "" {
			attr.Definition.Name += "." + method
		}
	}
	return attr, true
}

// Interceptor is the transactional boundary of a wrapped type. Only calls
// made through Call (or Invoke) get transactional treatment: a method of the
// wrapped type calling another one of its methods directly runs inside
// whatever transaction is already active, or none.
type Interceptor struct {
	coord  *Coordinator
	source *AttributeSource
}

// NewInterceptor creates a boundary resolving attributes from source.
func NewInterceptor(coord *Coordinator, source *AttributeSource) *Interceptor {
	return &Interceptor{coord: coord, source: source}
}

// NewUnitInterceptor creates a boundary applying attr to every call.
func NewUnitInterceptor(coord *Coordinator, name string, attr Attribute) *Interceptor {
	return NewInterceptor(coord, NewAttributeSource(name).WithDefault(attr))
}

// Invoke runs fn under the type-level attribute.
func (i *Interceptor) Invoke(ctx context.Context, fn func(ctx context.Context) error) error {
	return i.Call(ctx, "", fn)
}

// Call runs fn as method of the wrapped type.
//
// The transaction commits when fn returns nil. When fn fails the rollback
// rules decide between rollback and commit; either way fn's error is
// returned. A panic in fn rolls back and is re-raised.
func (i *Interceptor) Call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	attr, ok := i.source.Lookup(method)
	if !ok {
		return fn(ctx)
	}
	return execute(ctx, i.coord, attr, fn)
}

// Execute runs fn under interceptor i and returns its result.
func Execute[T any](ctx context.Context, i *Interceptor, method string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := i.Call(ctx, method, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

func execute(ctx context.Context, coord *Coordinator, attr Attribute, fn func(ctx context.Context) error) (err error) {
	def := attr.Definition
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.name", def.Name),
			attribute.String("tx.propagation", def.Propagation.String()),
			attribute.Bool("tx.read_only", def.ReadOnly),
		))
	defer span.End()

	logger.Debug(ctx, "getting transaction", "name", def.Name)
	txCtx, st, err := coord.Begin(ctx, def)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return err
	}
	span.SetAttributes(attribute.Bool("tx.new", st.IsNewTransaction()))

	defer func() {
		if p := recover(); p != nil {
			if rbErr := coord.Rollback(txCtx, st); rbErr != nil {
				logger.Error(ctx, "rollback after panic failed", "name", def.Name, "error", rbErr)
			}
			span.SetStatus(codes.Error, "panic")
			panic(p)
		}
	}()

	err = fn(txCtx)
	if err == nil {
		logger.Debug(ctx, "completing transaction", "name", def.Name)
		if cErr := coord.Commit(txCtx, st); cErr != nil {
			span.RecordError(cErr)
			span.SetStatus(codes.Error, "commit failed")
			return cErr
		}
		return nil
	}

	span.RecordError(err)
	if attr.Rules.ShouldRollback(err) {
		logger.Debug(ctx, "completing transaction after error, rolling back", "name", def.Name, "error", err)
		if rbErr := coord.Rollback(txCtx, st); rbErr != nil {
			logger.Error(ctx, "rollback failed", "name", def.Name, "error", rbErr, "original_error", err)
		}
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	logger.Debug(ctx, "completing transaction after error, committing", "name", def.Name, "error", err)
	if cErr := coord.Commit(txCtx, st); cErr != nil {
		span.SetStatus(codes.Error, "commit failed")
		return errors.Join(err, fmt.Errorf("commit after non-rollback error: %w", cErr))
	}
	span.SetStatus(codes.Ok, "committed with error")
	return err
}
