// Package workflow ties decoding, detection, annotation and persistence
// together into the user-facing modes of the plate detector.
//
// # Modes
//
//   - Annotate-and-save: detect, outline every plate, and write the annotated
//     copy to <base dir>/<subdir>/<input basename>.
//   - Crop: a Session carries one input through detection and annotation,
//     then one plate is chosen by an explicit selection policy and cropped
//     from the unannotated original.
//   - Batch: annotate-and-save over many inputs with bounded concurrency.
//
// Detection itself stays pure; this package is the only place that writes
// files. A missing plate is reported as detection.ErrNoPlateDetected, decode
// failures as *imaging.DecodeError and write failures as *imaging.WriteError,
// all matchable with errors.Is / errors.As through the added context.
package workflow
