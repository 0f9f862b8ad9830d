package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/drgolem/audiocore/pkg/ringbuffer"
)

func main() {
	// A small ring buffer of 1024 float32 samples.
	rb := ringbuffer.New(1024)

	fmt.Println("Lock-free SPSC Ring Buffer Demo")
	fmt.Printf("Capacity: %d samples\n\n", rb.Capacity())

	var wg sync.WaitGroup
	wg.Add(2)

	// Producer goroutine - simulates the decoder worker.
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			chunk := make([]float32, 64)
			for j := range chunk {
				chunk[j] = float32(i*64+j) / 1000.0
			}

			for rb.AvailableWrite() < uint64(len(chunk)) {
				time.Sleep(time.Millisecond)
			}

			n := rb.Write(chunk)
			fmt.Printf("Producer: wrote %d samples (chunk %d), available: %d\n",
				n, i, rb.AvailableRead())

			time.Sleep(10 * time.Millisecond)
		}
		fmt.Println("Producer: finished")
	}()

	// Consumer goroutine - simulates the output callback.
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)

		totalRead := 0
		for totalRead < 640 {
			readBuf := make([]float32, 64)

			for rb.AvailableRead() == 0 {
				time.Sleep(time.Millisecond)
			}

			n := rb.Read(readBuf)
			totalRead += n
			fmt.Printf("Consumer: read %d samples, total: %d, remaining: %d\n",
				n, totalRead, rb.AvailableRead())

			time.Sleep(15 * time.Millisecond)
		}
		fmt.Println("Consumer: finished")
	}()

	wg.Wait()
	fmt.Println("\nDemo completed successfully!")
}
