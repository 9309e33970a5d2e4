// MindBloom - supportive chat companion for students.
package main

func main() {
	Execute()
}
