// Package workflow implements the durable single-worker operation queue. A
// Manager serializes enqueue, dequeue, and worker mutations behind one mutex,
// flushes the JSON-backed store after every mutation, and dispatches the
// queue head to the registered operation handler strictly in FIFO order.
package workflow
