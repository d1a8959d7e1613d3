// Package anomaly flags campaigns whose rate metric sits far from the
// baseline of their peer group.
//
// Campaigns are partitioned by content bucket or by brand industry, and
// optionally subdivided by disease topic. Each partition's baseline is the
// population mean and standard deviation of its completed campaigns; live
// campaigns are scored against that baseline but never contribute to it.
// Partitions with fewer completed campaigns than Options.MinSample are
// skipped.
package anomaly
