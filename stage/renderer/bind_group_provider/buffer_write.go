package bind_group_provider

// BufferWrite describes a pending write to a provider-owned GPU buffer.
// The Stage collects these each frame from every dirty component and hands the
// batch to the Renderer, which uploads them through the queue in one pass.
type BufferWrite struct {
	// Provider is the BindGroupProvider that owns the buffer to write to.
	Provider BindGroupProvider
	// Binding is the binding index of the buffer within the provider.
	Binding int
	// Offset is the byte offset within the buffer to start writing at.
	Offset uint64
	// Data is the raw bytes to upload.
	Data []byte
}
