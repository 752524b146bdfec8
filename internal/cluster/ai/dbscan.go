package ai

// clusterLabels assigns each point a cluster label from the distance matrix.
// Two points are neighbors when their distance is at most eps; clusters are
// the connected components of the neighbor graph, so any chain of close
// points merges even when its endpoints are far apart. Labels are assigned
// in first-encounter order starting at 0, which makes the output stable for
// a given input order.
func clusterLabels(dist [][]float64, eps float64) []int {
	n := len(dist)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	next := 0
	for i := 0; i < n; i++ {
		if labels[i] != -1 {
			continue
		}
		labels[i] = next

		// Breadth-first expansion over the eps-neighbor graph.
		queue := []int{i}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			for q := 0; q < n; q++ {
				if labels[q] != -1 || dist[p][q] > eps {
					continue
				}
				labels[q] = next
				queue = append(queue, q)
			}
		}
		next++
	}
	return labels
}
