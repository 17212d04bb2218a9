// Copyright (c) 2025 Far Storm.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session ties visitors to sessions and sessions to variant
assignments.

Manager handles the cookie side: Ensure mints a random token on first
contact, sets it HttpOnly with SameSite=Lax, and persists the session
row with insert-if-absent so repeat requests are cheap no-ops.

Store implements abtest.AssignmentStore over SQL. Assignment creation
rides the (session_id, experiment_name) primary key: a conflicting
insert does nothing, which is exactly the atomicity the assignment
engine needs to keep concurrent first requests on one variant.
*/
package session
