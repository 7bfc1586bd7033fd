/*
Package v2df converts a video into density function documents for a voxel terrain engine.

Each frame is normalized to a small grid of brightness levels, compiled into a
tree of range choices over the horizontal axes, and assembled with its
neighbours into one expression selected by frame index. Evaluating the result
at a coordinate reproduces the pixel; walking the traversal functions replays
the video in the world.

# Usage

	cfg, base, err := v2df.Load(".")
	if err != nil {
		log.Fatal(err)
	}
	cfg = v2df.Resolve(cfg, base)

	eng, err := v2df.New(v2df.WithWorkers(4))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	results, err := eng.Run(ctx, cfg)

Decoders, artifact writers, the tree cache and the project lock are ports;
the defaults decode GIF, MPEG-1 and image sequences, write files atomically
under output_root_dir, and cache trees in memory or in Redis when the config
names a server.
*/
package v2df
