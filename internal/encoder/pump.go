package encoder

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"
)

// FrameSource yields raw Y4M frames until io.EOF.
type FrameSource interface {
	Next() ([]byte, error)
}

// Progress receives the number of frames delivered so far.
type Progress func(done int)

// pumpDepth bounds the frames decoded ahead of the encoder.
const pumpDepth = 4

// Pump copies up to limit frames from src into sess and finishes the session.
// It returns the number of frames the session accepted. A source that ends
// before limit is not an error; callers compare the count.
func Pump(ctx context.Context, src FrameSource, sess Session, limit int, progress Progress) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan []byte, pumpDepth)
	done := 0

	g.Go(func() error {
		defer close(frames)
		for read := 0; limit <= 0 || read < limit; read++ {
			frame, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case frames <- frame:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for frame := range frames {
			if err := sess.Feed(frame); err != nil {
				_ = sess.Finish()
				return err
			}
			done++
			if progress != nil {
				progress(done)
			}
		}
		return sess.Finish()
	})

	err := g.Wait()
	return done, err
}
