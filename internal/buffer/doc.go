// Package buffer provides thread-safe buffering of encoded log lines.
//
// Object sinks resolve a partition key for every event and append the
// encoded line to the buffer for that key. A buffer is drained into one
// object when the rotation policy fires or when it refuses another line.
//
// # KeyBuffer
//
//	buf := buffer.New("logs/web-1/", maxSizeBytes, maxLines)
//
//	if err := buf.Add(line); errors.Is(err, apperrors.ErrBufferFull) {
//	    lines := buf.Drain()
//	    writeObject(lines)
//	    _ = buf.Add(line)
//	}
//
// A single line larger than maxSizeBytes is accepted into an empty buffer
// so that it can still be written out on its own.
//
// # Manager
//
// Manager holds one buffer per partition key and creates them on demand:
//
//	manager := buffer.NewManager(maxSizeBytes, maxLines)
//	buf := manager.GetOrCreate(string(key))
//
// Keys lists the live keys in order so flushes are deterministic, and
// Remove drops a drained buffer so idle keys do not accumulate. Restore
// puts drained lines back after a failed write without resetting their age.
//
// # Thread Safety
//
//   - Add(), Drain(), Restore(), Reset() use write locks
//   - Stats(), IsEmpty() use read locks
//   - Manager.GetOrCreate() uses double-checked locking
package buffer
