/*
Package ports defines the driven ports (interfaces) for the v2df pipeline.

These interfaces decouple the compiler core from decoders, storage and
coordination backends, allowing the pipeline to run against real files,
in-memory fixtures or shared infrastructure alike.

# Key Interfaces

  - FrameSource: A lazy, finite, restartable sequence of decoded frames.
  - Opener: Opens a video path into a FrameSource.
  - ArtifactWriter: Persists documents, scripts and previews atomically.
  - TreeCache: Stores compiled trees keyed by the content of their grid.
  - DistributedLocker: Provides distributed locking so a project is rendered by one process at a time.
*/
package ports
