package errors

// TableError is a specialized error type for table-directory operations:
// add, find, erase. It embeds baseError and adds the context needed to
// diagnose name collisions, capacity exhaustion, and lookup misses.
type TableError struct {
	*baseError
	entryName string // The table entry name involved in the error.
	operation string // The table operation being performed ("Add", "Find", "Erase").
	capacity  int    // The table's fixed entry capacity, for table-full errors.
}

// NewTableError creates a new table-specific error.
func NewTableError(err error, code ErrorCode, msg string) *TableError {
	return &TableError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the TableError type.
func (te *TableError) WithMessage(msg string) *TableError {
	te.baseError.WithMessage(msg)
	return te
}

// WithCode sets the error code while preserving the TableError type.
func (te *TableError) WithCode(code ErrorCode) *TableError {
	te.baseError.WithCode(code)
	return te
}

// WithDetail adds contextual information while maintaining the TableError type.
func (te *TableError) WithDetail(key string, value any) *TableError {
	te.baseError.WithDetail(key, value)
	return te
}

// WithEntryName records which entry name was being processed.
func (te *TableError) WithEntryName(name string) *TableError {
	te.entryName = name
	return te
}

// WithOperation records which table operation was being performed.
func (te *TableError) WithOperation(op string) *TableError {
	te.operation = op
	return te
}

// WithCapacity records the table's fixed entry capacity.
func (te *TableError) WithCapacity(capacity int) *TableError {
	te.capacity = capacity
	return te
}

// EntryName returns the entry name involved in the error.
func (te *TableError) EntryName() string {
	return te.entryName
}

// Operation returns the table operation that was being performed.
func (te *TableError) Operation() string {
	return te.operation
}

// Capacity returns the table's fixed entry capacity.
func (te *TableError) Capacity() int {
	return te.capacity
}

// NewEntryNotFoundError creates a specialized error for an unresolved table lookup.
func NewEntryNotFoundError(name string) *TableError {
	return NewTableError(nil, ErrorCodeNotFound, "table entry not found").
		WithEntryName(name).
		WithOperation("Find")
}

// NewTableFullError creates a specialized error for table exhaustion.
func NewTableFullError(capacity int) *TableError {
	return NewTableError(nil, ErrorCodeTableFull, "table entry array is exhausted").
		WithOperation("Add").
		WithCapacity(capacity)
}

// NewEntryExistsError creates a specialized error for a name collision on Add.
func NewEntryExistsError(name string) *TableError {
	return NewTableError(nil, ErrorCodeAlreadyExists, "table entry already exists").
		WithEntryName(name).
		WithOperation("Add")
}
