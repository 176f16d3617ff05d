// Package clustering groups stored events by their electrical signature
// with mean shift and keeps the latest grouping in SQLite.
//
// Features turns an event into an eight-value vector. EstimateBandwidth
// picks a kernel radius from the data and MeanShift.Fit finds the
// density modes. Engine.Compute runs the whole pipeline over every stored
// event and replaces the previous results. BatchWorker calls it once per
// configured number of newly stored events.
package clustering
