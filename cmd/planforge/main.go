// Planforge is a multi-agent business planning assistant. It guides a
// founder through phased questions and orchestrates specialist agents
// to answer free-form planning questions.
package main

func main() {
	Execute()
}
