// Package compose implements a multi-layer GPU image compositor with
// animatable parameters and an off-thread render scheduler.
//
// The root package holds the document model shared by every subpackage:
// layers (image, adjustment, solid, group), blend modes, parameter
// values and their domains, and colors. The heavy lifting lives in the
// subpackages:
//
//   - anim: keyframe tracks and the parameter sampler
//   - shader: shader descriptors and the compiled-program registry
//   - adjust: adjustment plugins mapping parameters to shader passes
//   - render: framebuffer management, the pass-graph pipeline, and the
//     hybrid layer renderer
//   - validate: dimension and parameter validation
//   - schedule: the priority task queue and render execution contexts
//   - backend: GPU device implementations (software reference, wgpu)
//
// A frame is produced by handing a Document snapshot and a playhead
// time to schedule.Manager, which validates the request, dispatches it
// to the execution context owning the output surface, and reports
// progress and completion through callbacks.
package compose
