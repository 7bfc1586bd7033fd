/*
Package domain contains the core domain models for the v2df compiler.

It defines the entities shared by every stage of the pipeline: decoded frames,
normalized pixel grids, project configuration, traversal scripts and the error
taxonomy. This package is kept pure and free of external dependencies like
I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - RawFrame: A decoded video frame as delivered by a FrameSource.
  - PixelGrid: A normalized frame whose cells hold values of the terrain value domain.
  - Border: The uniform padding applied to every frame of a project.
  - ProjectSpec: The read-only configuration of one rendered project.
  - TraversalScript: The observer movement that replays the video through the terrain.
*/
package domain
